package manager

import (
	"context"
	"fmt"
	"time"

	"gitee.com/flycash/connectivity-orchestrator/internal/domain"
	"gitee.com/flycash/connectivity-orchestrator/internal/errs"
	"gitee.com/flycash/connectivity-orchestrator/internal/event/failover"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/provider"
	"gitee.com/flycash/connectivity-orchestrator/internal/service/provider/metrics"
	"github.com/gotomicro/ego/core/elog"
	"github.com/hashicorp/go-multierror"
)

const eventTimeout = 3 * time.Second

const (
	rolePrimary = "primary"
	roleBackup  = "backup"
)

// result 各类调用结果都内嵌了 domain.Outcome
type result[R any] interface {
	*R
	Base() *domain.Outcome
}

// execute 选择主备供应商，主供应商失败（返回错误或者失败结果）时切到备用供应商，只切换一次。
// 适配器的错误和 panic 都会转换成失败结果，不会返回给调用方
func execute[C any, R any, P result[R]](
	ctx context.Context, m *Manager, service domain.ServiceType, op provider.Operation,
	call func(ctx context.Context, c C) (R, error),
) R {
	sel, err := m.SelectProvider(domain.SelectionCriteria{Service: service, RequireBackup: true})
	if err != nil {
		m.logger.Warn("没有可用的供应商", elog.String("op", string(op)), elog.FieldErr(err))
		return failed[R, P]("", err.Error())
	}

	res, err := attempt[C, R, P](ctx, m, sel.Primary, rolePrimary, op, call)
	if err == nil && P(&res).Base().Succeeded() {
		P(&res).Base().Provider = sel.Primary.Name()
		return res
	}
	primaryErr := failureMessage(P(&res).Base(), err)

	if sel.Backup == nil || !provider.Supports(sel.Backup, op) {
		m.logger.Warn("主供应商失败，没有可切换的备用供应商",
			elog.String("op", string(op)),
			elog.String("primary", sel.Primary.Name()),
			elog.String("error", primaryErr))
		return failed[R, P](sel.Primary.Name(), primaryErr)
	}

	m.logger.Warn("主供应商失败，切换到备用供应商",
		elog.String("op", string(op)),
		elog.String("primary", sel.Primary.Name()),
		elog.String("backup", sel.Backup.Name()),
		elog.String("error", primaryErr))
	backupRes, backupErr := attempt[C, R, P](ctx, m, sel.Backup, roleBackup, op, call)
	if backupErr == nil && P(&backupRes).Base().Succeeded() {
		P(&backupRes).Base().Provider = sel.Backup.Name()
		m.failover(ctx, service, op, sel, failover.OutcomeRecovered, primaryErr, "")
		return backupRes
	}

	backupMsg := failureMessage(P(&backupRes).Base(), backupErr)
	var merr *multierror.Error
	merr = multierror.Append(merr,
		fmt.Errorf("%s: %s", sel.Primary.Name(), primaryErr),
		fmt.Errorf("%s: %s", sel.Backup.Name(), backupMsg))
	m.logger.Error("主备供应商都失败",
		elog.String("op", string(op)),
		elog.String("service", string(service)),
		elog.FieldErr(merr))
	m.failover(ctx, service, op, sel, failover.OutcomeBothFailed, primaryErr, backupMsg)
	return failed[R, P](sel.Primary.Name(), primaryErr)
}

// attempt 在一个供应商上执行一次调用，记录指标和链路
func attempt[C any, R any, P result[R]](
	ctx context.Context, m *Manager, p provider.Provider, role string, op provider.Operation,
	call func(ctx context.Context, c C) (R, error),
) (res R, err error) {
	c, ok := provider.As[C](p)
	if !ok {
		return res, fmt.Errorf("%w: %s 不支持 %s", errs.ErrUnsupportedOperation, p.Name(), op)
	}
	ctx, end := m.tracer.Start(ctx, p.Name(), p.Type(), string(op), role)
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			var zero R
			res = zero
			err = fmt.Errorf("%s 执行 %s 时 panic: %v", p.Name(), op, r)
		}
		status := metrics.StatusSuccess
		switch {
		case err != nil:
			status = metrics.StatusError
		case !P(&res).Base().Succeeded():
			status = metrics.StatusFailure
		}
		m.metrics.ObserveAttempt(p.Name(), p.Type(), string(op), status, time.Since(start))
		end(P(&res).Base(), err)
	}()
	return call(ctx, c)
}

// invoke 按名字直接调用某个供应商，不做选择和切换
func invoke[C any, T any](
	ctx context.Context, m *Manager, name string, op provider.Operation,
	call func(ctx context.Context, c C) (T, error),
) (res T, err error) {
	p, ok := m.Provider(name)
	if !ok {
		return res, fmt.Errorf("%w: %s", errs.ErrProviderNotFound, name)
	}
	c, ok := provider.As[C](p)
	if !ok {
		return res, fmt.Errorf("%w: %s 不支持 %s", errs.ErrUnsupportedOperation, name, op)
	}
	ctx, end := m.tracer.Start(ctx, p.Name(), p.Type(), string(op), "direct")
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			var zero T
			res = zero
			err = fmt.Errorf("%s 执行 %s 时 panic: %v", p.Name(), op, r)
		}
		status := metrics.StatusSuccess
		if err != nil {
			status = metrics.StatusError
		}
		m.metrics.ObserveAttempt(p.Name(), p.Type(), string(op), status, time.Since(start))
		end(nil, err)
	}()
	return call(ctx, c)
}

func (m *Manager) failover(ctx context.Context, service domain.ServiceType, op provider.Operation,
	sel Selection, outcome, primaryErr, backupErr string,
) {
	m.metrics.IncFailover(service, string(op), outcome)
	if m.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventTimeout)
	defer cancel()
	err := m.events.Produce(ctx, failover.Event{
		Service:      string(service),
		Operation:    string(op),
		Primary:      sel.Primary.Name(),
		Backup:       sel.Backup.Name(),
		Outcome:      outcome,
		PrimaryError: primaryErr,
		BackupError:  backupErr,
		OccurredAt:   time.Now(),
	})
	if err != nil {
		m.logger.Warn("发送故障转移事件失败", elog.FieldErr(err))
	}
}

func failed[R any, P result[R]](providerName, msg string) R {
	var res R
	*P(&res).Base() = domain.Outcome{Success: false, Provider: providerName, Error: msg}
	return res
}

func failureMessage(outcome *domain.Outcome, err error) string {
	switch {
	case err != nil:
		return err.Error()
	case outcome.Error != "":
		return outcome.Error
	default:
		return "供应商返回失败但没有说明原因"
	}
}
