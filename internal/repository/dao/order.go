package dao

import (
	"context"
	"database/sql"
	"time"

	"github.com/ego-component/egorm"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order 店铺订单表
type Order struct {
	ID              int64           `gorm:"primaryKey;autoIncrement;comment:'订单ID'"`
	UserID          int64           `gorm:"type:BIGINT;NOT NULL;index:idx_user_id;comment:'下单用户'"`
	PlanID          string          `gorm:"type:VARCHAR(64);NOT NULL;comment:'套餐ID'"`
	Service         string          `gorm:"type:ENUM('esim','communication','vpn');NOT NULL;comment:'服务类型'"`
	Status          string          `gorm:"type:ENUM('pending','processing','active','failed','cancelled','expired');NOT NULL;DEFAULT:'pending';index:idx_status_utime,priority:1;comment:'订单状态'"`
	Price           decimal.Decimal `gorm:"type:DECIMAL(12,2);NOT NULL;comment:'下单价格'"`
	Provider        string          `gorm:"type:VARCHAR(64);comment:'实际完成订单的供应商'"`
	ProviderOrderID string          `gorm:"type:VARCHAR(128);comment:'供应商侧的订单号'"`
	ArtifactURL     string          `gorm:"type:VARCHAR(1024);comment:'二维码、激活码或者配置文件地址'"`
	Extra           sql.NullString  `gorm:"type:JSON;comment:'下单时的附加信息'"`
	Ctime           int64
	Utime           int64 `gorm:"index:idx_status_utime,priority:2"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderUpdate 只更新非空字段
type OrderUpdate struct {
	Status          string
	ArtifactURL     string
	Provider        string
	ProviderOrderID string
}

type OrderDAO interface {
	Create(ctx context.Context, order Order) (Order, error)
	// UpdateStatus 订单不存在时返回 gorm.ErrRecordNotFound
	UpdateStatus(ctx context.Context, id int64, update OrderUpdate) error
	GetByID(ctx context.Context, id int64) (Order, error)
	// FindStalePending 按 (utime, id) 升序查找 utime 早于 before、位置在 (afterUtime, afterID) 之后
	// 仍然是 pending 的订单。utime 相同的订单用 id 区分，分批扫描时不会漏掉
	FindStalePending(ctx context.Context, afterUtime, afterID, before int64, limit int) ([]Order, error)
}

type orderDAO struct {
	db *egorm.Component
}

func NewOrderDAO(db *egorm.Component) OrderDAO {
	return &orderDAO{db: db}
}

func InitTables(db *egorm.Component) error {
	return db.AutoMigrate(&Order{})
}

func (o *orderDAO) Create(ctx context.Context, order Order) (Order, error) {
	now := time.Now().UnixMilli()
	order.Ctime = now
	order.Utime = now
	if err := o.db.WithContext(ctx).Create(&order).Error; err != nil {
		return Order{}, err
	}
	return order, nil
}

func (o *orderDAO) UpdateStatus(ctx context.Context, id int64, update OrderUpdate) error {
	values := map[string]any{
		"status": update.Status,
		"utime":  time.Now().UnixMilli(),
	}
	if update.ArtifactURL != "" {
		values["artifact_url"] = update.ArtifactURL
	}
	if update.Provider != "" {
		values["provider"] = update.Provider
	}
	if update.ProviderOrderID != "" {
		values["provider_order_id"] = update.ProviderOrderID
	}
	res := o.db.WithContext(ctx).Model(&Order{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (o *orderDAO) GetByID(ctx context.Context, id int64) (Order, error) {
	var order Order
	err := o.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	return order, err
}

func (o *orderDAO) FindStalePending(ctx context.Context, afterUtime, afterID, before int64, limit int) ([]Order, error) {
	var orders []Order
	err := o.db.WithContext(ctx).
		Where("status = ? AND utime < ? AND (utime > ? OR (utime = ? AND id > ?))",
			"pending", before, afterUtime, afterUtime, afterID).
		Order("utime ASC, id ASC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}
