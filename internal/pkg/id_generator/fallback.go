package id

import (
	"errors"
	"strconv"
	"time"

	"github.com/sony/sonyflake"
)

var (
	ErrGeneratorInit = errors.New("ID生成器初始化失败")

	// 基准时间 - 2024年1月1日
	epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

// Generator 供应商响应里找不到订单号的时候，用它生成一个可追踪的兜底ID
type Generator struct {
	flake *sonyflake.Sonyflake
}

func NewGenerator(machineID uint16) (*Generator, error) {
	flake := sonyflake.NewSonyflake(sonyflake.Settings{
		StartTime: epoch,
		MachineID: func() (uint16, error) {
			return machineID, nil
		},
	})
	if flake == nil {
		return nil, ErrGeneratorInit
	}
	return &Generator{flake: flake}, nil
}

// FallbackID 形如 <prefix>-<sonyflake id>
func (g *Generator) FallbackID(prefix string) (string, error) {
	n, err := g.flake.NextID()
	if err != nil {
		return "", err
	}
	return prefix + "-" + strconv.FormatUint(n, 10), nil
}
