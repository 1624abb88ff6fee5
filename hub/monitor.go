package hub

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/cingweng66/Rmah-Live/log"
)

// Monitor 监控器
// 定期收集房间数、连接数和系统负载写进日志
type Monitor struct {
	hub            *SyncHub
	gateway        *Gateway
	updateInterval time.Duration
	stopCh         chan struct{}
}

// NewMonitor 创建监控器
// updateInterval: 更新间隔（建议 10-30 秒）
func NewMonitor(hub *SyncHub, gateway *Gateway, updateInterval time.Duration) *Monitor {
	return &Monitor{
		hub:            hub,
		gateway:        gateway,
		updateInterval: updateInterval,
		stopCh:         make(chan struct{}),
	}
}

// Start 启动监控器，阻塞直到 ctx 结束或 Stop
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.updateInterval)
	defer ticker.Stop()

	m.reportLoad()

	for {
		select {
		case <-ctx.Done():
			log.Info("Monitor 收到停止信号，退出监控")
			return
		case <-m.stopCh:
			log.Info("Monitor 收到停止信号，退出监控")
			return
		case <-ticker.C:
			m.reportLoad()
		}
	}
}

// Stop 停止监控器
func (m *Monitor) Stop() {
	close(m.stopCh)
}

func (m *Monitor) reportLoad() {
	cpuUsage := m.getCPUUsage()
	memUsage := m.getMemoryUsage()

	log.Info("负载上报: Rooms=%d, Conns=%d, CPU=%.2f%%, Mem=%.2f%%",
		m.hub.RoomCount(), m.gateway.ConnCount(), cpuUsage, memUsage)
}

// getCPUUsage 系统 CPU 使用率
func (m *Monitor) getCPUUsage() float64 {
	percents, err := cpu.Percent(0, false)
	if err != nil || len(percents) == 0 {
		return 0.0
	}
	return percents[0]
}

// getMemoryUsage 系统内存使用率
func (m *Monitor) getMemoryUsage() float64 {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0.0
	}
	return vm.UsedPercent
}
