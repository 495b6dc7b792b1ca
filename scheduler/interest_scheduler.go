// Package scheduler runs the daily interest accrual job.
package scheduler

import (
	"context"
	"errors"
	"go-ledger-api/common"
	"go-ledger-api/logger"
	"go-ledger-api/metrics"
	"go-ledger-api/model"
	"go-ledger-api/repository"
	"go-ledger-api/service"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultSchedule = "0 2 * * *"
	defaultWorkers  = 4
	accrualInterval = 24 * time.Hour
)

var ErrRunInProgress = errors.New("interest accrual run already in progress")

// RunReport summarises one accrual pass.
type RunReport struct {
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Scanned  int       `json:"scanned"`
	Accrued  int       `json:"accrued"`
	Skipped  int       `json:"skipped"`
	Failed   int       `json:"failed"`
}

// InterestScheduler accrues one day of interest on every ACTIVE account whose
// last accrual is older than a day. Accounts are processed by a bounded pool of
// workers; a failed account keeps its stale timestamp and is picked up next run.
type InterestScheduler struct {
	accounts repository.IAccountRepository
	cache    service.ICacheClient
	schedule string
	workers  int
	now      func() time.Time

	runMu sync.Mutex

	mu   sync.Mutex
	cron *cron.Cron
	last RunReport
}

type Option func(*InterestScheduler)

// WithSchedule sets the cron expression (standard five fields).
func WithSchedule(spec string) Option {
	return func(s *InterestScheduler) { s.schedule = spec }
}

func WithWorkers(n int) Option {
	return func(s *InterestScheduler) { s.workers = n }
}

// WithCache makes each accrual drop the owner's cached account list.
func WithCache(cache service.ICacheClient) Option {
	return func(s *InterestScheduler) { s.cache = cache }
}

func WithClock(now func() time.Time) Option {
	return func(s *InterestScheduler) { s.now = now }
}

func New(accounts repository.IAccountRepository, opts ...Option) *InterestScheduler {
	s := &InterestScheduler{
		accounts: accounts,
		schedule: DefaultSchedule,
		workers:  defaultWorkers,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.workers < 1 {
		s.workers = 1
	}
	return s
}

// Start registers the job and starts the cron loop. Runs use ctx as their parent.
func (s *InterestScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	cronLog := cron.PrintfLogger(logger.Log)
	c := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	if _, err := c.AddFunc(s.schedule, func() {
		if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, ErrRunInProgress) {
			logger.Log.WithError(err).Error("Interest accrual run failed")
		}
	}); err != nil {
		return err
	}
	c.Start()
	s.cron = c
	logger.Log.WithField("schedule", s.schedule).Info("Interest accrual scheduler started")
	return nil
}

// Stop halts the cron loop and waits for a running job to return.
func (s *InterestScheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	logger.Log.Info("Interest accrual scheduler stopped")
}

// LastRun returns the report of the most recent completed run.
func (s *InterestScheduler) LastRun() RunReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// RunOnce performs one accrual pass. Only one pass runs at a time; a concurrent
// call returns ErrRunInProgress.
func (s *InterestScheduler) RunOnce(ctx context.Context) (RunReport, error) {
	if !s.runMu.TryLock() {
		return RunReport{}, ErrRunInProgress
	}
	defer s.runMu.Unlock()

	started := s.now()
	cutoff := started.Add(-accrualInterval)
	log := logger.Log.WithFields(logrus.Fields{
		"job":    "interest_accrual",
		"cutoff": cutoff,
	})
	log.Info("Starting interest accrual run")

	var (
		g                errgroup.Group
		scanned, skipped int
		accrued, failed  atomic.Int64
		iterErr          error
	)
	g.SetLimit(s.workers)

	for account, err := range s.accounts.FindDueForInterest(ctx, cutoff) {
		if err != nil {
			iterErr = err
			break
		}
		scanned++
		if !account.Balance.IsPositive() {
			skipped++
			continue
		}
		g.Go(func() error {
			if err := s.accrue(ctx, account, started); err != nil {
				failed.Add(1)
				entry := log.WithError(err).WithField("account", account.AccountNumber)
				if errors.Is(err, common.ErrConcurrencyConflict) {
					entry.Warn("Account changed during accrual, skipping until next run")
				} else {
					entry.Error("Failed to accrue interest")
				}
				return nil
			}
			accrued.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	report := RunReport{
		Started:  started,
		Finished: s.now(),
		Scanned:  scanned,
		Accrued:  int(accrued.Load()),
		Skipped:  skipped,
		Failed:   int(failed.Load()),
	}
	s.mu.Lock()
	s.last = report
	s.mu.Unlock()

	metrics.InterestAccounts.WithLabelValues("accrued").Add(float64(report.Accrued))
	metrics.InterestAccounts.WithLabelValues("skipped").Add(float64(report.Skipped))
	metrics.InterestAccounts.WithLabelValues("failed").Add(float64(report.Failed))
	metrics.InterestRunDuration.Observe(report.Finished.Sub(report.Started).Seconds())

	entry := log.WithFields(logrus.Fields{
		"scanned": report.Scanned,
		"accrued": report.Accrued,
		"skipped": report.Skipped,
		"failed":  report.Failed,
	})
	if iterErr != nil {
		entry.WithError(iterErr).Error("Interest accrual run aborted while reading accounts")
		return report, iterErr
	}
	entry.Info("Interest accrual run finished")
	return report, nil
}

// accrue adds one day of interest to the account's accrued interest and stamps
// the calculation time. The write only lands if the account is unchanged since it was read.
func (s *InterestScheduler) accrue(ctx context.Context, account *model.Account, now time.Time) error {
	daily := DailyInterest(account.Balance, account.InterestRate)
	_, err := s.accounts.CompareAndSwap(ctx, account.ID, account.Version, func(a *model.Account) error {
		a.AccruedInterest = a.AccruedInterest.Add(daily)
		a.LastInterestCalculated = &now
		return nil
	})
	if err != nil {
		return err
	}
	service.InvalidateAccounts(ctx, s.cache, account.CustomerID)
	return nil
}
