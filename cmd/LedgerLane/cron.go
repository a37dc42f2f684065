package main

import (
	"strings"
	"time"

	"LedgerLane/internal/biz"
	"LedgerLane/pkg/ledger"
	pkglog "LedgerLane/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/robfig/cron/v3"
)

// startOpsCron 启动运维定时任务
// 心跳频率：每 30 秒输出一次健康评估
// 预算汇总：每天 23:59:59 (UTC) 记录当日赞助消耗
func startOpsCron(uc *biz.LedgerUseCase, logger log.Logger) *cron.Cron {
	helper := pkglog.NewLogHelper(logger)

	// 预算按 UTC 日切，定时任务也固定在 UTC 时区
	c := cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC))

	// 每 30 秒执行一次健康心跳
	// Cron 表达式：*/30 * * * * * （秒 分 时 日 月 周）
	_, err := c.AddFunc("*/30 * * * * *", func() {
		report := uc.HealthReport()
		if report.Status == ledger.HealthHealthy {
			helper.HealthCheck("Ledger access healthy", "status", string(report.Status))
			return
		}

		// 非健康状态列出未通过的检查项，方便告警定位
		failed := make([]string, 0, len(report.Checks))
		for name, check := range report.Checks {
			if !check.Passed {
				failed = append(failed, name+": "+check.Detail)
			}
		}
		helper.Warnw(
			"msg", "Ledger access "+string(report.Status),
			"status", string(report.Status),
			"failed_checks", strings.Join(failed, "; "),
			"type", "health",
		)
	})
	if err != nil {
		helper.Errorw("msg", "failed to register health heartbeat cron job", "error", err)
		return nil
	}

	// 每天 UTC 日切前输出赞助预算汇总
	// 日切本身由预算管理器在新一天首次访问时惰性执行
	_, err = c.AddFunc("59 59 23 * * *", func() {
		snap := uc.BudgetSnapshot()
		if !snap.Enabled {
			return
		}
		helper.Quota(
			"Daily sponsor budget summary",
			"date", snap.LastResetDate,
			"spent_today", snap.SpentToday,
			"daily_ceiling", snap.DailyCeiling,
			"remaining", snap.Remaining(),
		)
	})
	if err != nil {
		helper.Errorw("msg", "failed to register budget summary cron job", "error", err)
		return nil
	}

	c.Start()
	helper.Scheduler("Ops cron jobs started: health heartbeat every 30s, budget summary daily at 23:59:59 UTC")

	return c
}
