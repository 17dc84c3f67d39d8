package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"gitee.com/flycash/connectivity-orchestrator/internal/domain"
	"gitee.com/flycash/connectivity-orchestrator/internal/errs"
	"gitee.com/flycash/connectivity-orchestrator/internal/repository/dao"
	"github.com/ecodeclub/ekit/slice"
	"github.com/gotomicro/ego/core/elog"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// OrderRepository 订单仓储，CreatePending 和 UpdateStatus 供履约服务使用
type OrderRepository interface {
	CreatePending(ctx context.Context, userID int64, plan domain.Plan, extra map[string]any) (domain.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, update domain.OrderUpdate) (domain.Order, error)
	GetByID(ctx context.Context, orderID int64) (domain.Order, error)
	FindStalePending(ctx context.Context, afterUtime, afterID, before int64, limit int) ([]domain.Order, error)
}

type orderRepository struct {
	dao    dao.OrderDAO
	logger *elog.Component
}

func NewOrderRepository(d dao.OrderDAO) OrderRepository {
	return &orderRepository{
		dao:    d,
		logger: elog.DefaultLogger,
	}
}

func (o *orderRepository) CreatePending(ctx context.Context, userID int64, plan domain.Plan, extra map[string]any) (domain.Order, error) {
	entity := dao.Order{
		UserID:  userID,
		PlanID:  plan.ID,
		Service: string(plan.Service),
		Status:  domain.OrderStatusPending.String(),
		Price:   plan.Price,
	}
	if len(extra) > 0 {
		val, err := json.Marshal(extra)
		if err != nil {
			return domain.Order{}, errors.Wrap(err, "序列化订单附加信息失败")
		}
		entity.Extra = sql.NullString{String: string(val), Valid: true}
	}
	created, err := o.dao.Create(ctx, entity)
	if err != nil {
		return domain.Order{}, errors.WithMessagef(err, "用户 %d 创建订单失败", userID)
	}
	return o.toDomain(created), nil
}

func (o *orderRepository) UpdateStatus(ctx context.Context, orderID int64, update domain.OrderUpdate) (domain.Order, error) {
	err := o.dao.UpdateStatus(ctx, orderID, dao.OrderUpdate{
		Status:          update.Status.String(),
		ArtifactURL:     update.ArtifactURL,
		Provider:        update.Provider,
		ProviderOrderID: update.ProviderOrderID,
	})
	if err != nil {
		return domain.Order{}, o.wrap(err, orderID)
	}
	return o.GetByID(ctx, orderID)
}

func (o *orderRepository) GetByID(ctx context.Context, orderID int64) (domain.Order, error) {
	entity, err := o.dao.GetByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, o.wrap(err, orderID)
	}
	return o.toDomain(entity), nil
}

func (o *orderRepository) FindStalePending(ctx context.Context, afterUtime, afterID, before int64, limit int) ([]domain.Order, error) {
	entities, err := o.dao.FindStalePending(ctx, afterUtime, afterID, before, limit)
	if err != nil {
		return nil, errors.Wrap(err, "查找待处理订单失败")
	}
	return slice.Map(entities, func(_ int, src dao.Order) domain.Order {
		return o.toDomain(src)
	}), nil
}

func (o *orderRepository) wrap(err error, orderID int64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrapf(errs.ErrOrderNotFound, "订单 %d", orderID)
	}
	return errors.WithMessagef(err, "订单 %d", orderID)
}

func (o *orderRepository) toDomain(e dao.Order) domain.Order {
	order := domain.Order{
		ID:              e.ID,
		UserID:          e.UserID,
		PlanID:          e.PlanID,
		Service:         domain.ServiceType(e.Service),
		Status:          domain.OrderStatus(e.Status),
		Price:           e.Price,
		Provider:        e.Provider,
		ProviderOrderID: e.ProviderOrderID,
		ArtifactURL:     e.ArtifactURL,
		Ctime:           time.UnixMilli(e.Ctime),
		Utime:           time.UnixMilli(e.Utime),
	}
	if e.Extra.Valid {
		if err := json.Unmarshal([]byte(e.Extra.String), &order.Extra); err != nil {
			// 附加信息损坏不影响订单本身
			o.logger.Warn("解析订单附加信息失败", elog.Int64("orderID", e.ID), elog.FieldErr(err))
		}
	}
	return order
}
