package repo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cingweng66/Rmah-Live/database"
	"github.com/cingweng66/Rmah-Live/log"
	"github.com/cingweng66/Rmah-Live/mahjong"
)

// TransitionRecord 一次控制端操作落下的状态变更记录，复盘与审计用
type TransitionRecord struct {
	GameID    string             `bson:"game_id"`
	Route     string             `bson:"route"`
	Actor     string             `bson:"actor"`
	State     *mahjong.GameState `bson:"state"`
	Timestamp time.Time          `bson:"timestamp"`
}

// MongoHistoryStore 变更记录存 MongoDB，写失败只记日志不阻断广播
type MongoHistoryStore struct {
	mongo *database.MongoManager
}

func NewMongoHistoryStore(mongo *database.MongoManager) *MongoHistoryStore {
	return &MongoHistoryStore{mongo: mongo}
}

// AppendTransition 追加一条变更记录
func (s *MongoHistoryStore) AppendTransition(ctx context.Context, rec *TransitionRecord) error {
	collection := s.mongo.Db.Collection("state_transitions")

	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	_, err := collection.InsertOne(ctx, rec)
	if err != nil {
		log.Error("保存变更记录失败 gameId=%s route=%s: %v", rec.GameID, rec.Route, err)
		return err
	}
	return nil
}

// FindTransitions 按时间倒序取最近 limit 条
func (s *MongoHistoryStore) FindTransitions(ctx context.Context, gameID string, limit int) ([]*TransitionRecord, error) {
	collection := s.mongo.Db.Collection("state_transitions")

	filter := bson.M{"game_id": gameID}
	opts := options.Find().
		SetSort(bson.M{"timestamp": -1}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		log.Error("查询变更记录失败 gameId=%s: %v", gameID, err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var result []*TransitionRecord
	if err := cursor.All(ctx, &result); err != nil {
		log.Error("解析变更记录失败 gameId=%s: %v", gameID, err)
		return nil, err
	}
	return result, nil
}
