package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/digi-solutions-co-uk/digi-payment-system/internal/config"
	"github.com/digi-solutions-co-uk/digi-payment-system/internal/services"
)

// TaskType defines the type of a background task.
const (
	TypeInvoiceGenerate     = "billing:invoice:generate"
	TypeInvoiceCheckOverdue = "billing:invoice:check_overdue"
)

func redisOpt(rdb *redis.Client) asynq.RedisClientOpt {
	opts := rdb.Options()
	return asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}
}

// NewClient returns an Asynq client for enqueuing tasks.
func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(redisOpt(rdb))
}

// TaskProcessor handles the processing of tasks.
// It holds dependencies needed by task handlers.
type TaskProcessor struct {
	cfg            *config.Config
	billingService services.IBillingService
}

// NewTaskProcessor creates a new TaskProcessor.
func NewTaskProcessor(cfg *config.Config, billingService services.IBillingService) *TaskProcessor {
	return &TaskProcessor{cfg: cfg, billingService: billingService}
}

// SetupServer configures and returns an Asynq server with the billing task
// handlers registered. The caller runs it.
func SetupServer(rdb *redis.Client, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(
		redisOpt(rdb),
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 3,
				"low":     1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Error: %v", task.Type(), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeInvoiceGenerate, processor.HandleInvoiceGenerateTask)
	mux.HandleFunc(TypeInvoiceCheckOverdue, processor.HandleInvoiceCheckOverdueTask)

	return srv, mux
}

// SetupScheduler configures the cron entries for the two nightly billing
// jobs. Cron expressions are evaluated in UTC.
func SetupScheduler(rdb *redis.Client, cfg *config.Config) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(redisOpt(rdb), &asynq.SchedulerOpts{
		Location: time.UTC,
	})

	if _, err := scheduler.Register(cfg.GenerateInvoicesCron, asynq.NewTask(TypeInvoiceGenerate, nil)); err != nil {
		return nil, fmt.Errorf("failed to register invoice generation schedule: %w", err)
	}
	if _, err := scheduler.Register(cfg.OverdueSweepCron, asynq.NewTask(TypeInvoiceCheckOverdue, nil)); err != nil {
		return nil, fmt.Errorf("failed to register overdue sweep schedule: %w", err)
	}

	return scheduler, nil
}

// --- Task Handlers ---

// HandleInvoiceGenerateTask runs the nightly invoice generation pass.
func (p *TaskProcessor) HandleInvoiceGenerateTask(ctx context.Context, t *asynq.Task) error {
	log.Println("Starting invoice generation task...")

	created, err := p.billingService.GenerateDueInvoices(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("Invoice generation task failed: %v", err)
		return err
	}

	log.Printf("Invoice generation task finished. Generated %d invoices.", created)
	return nil
}

// HandleInvoiceCheckOverdueTask flips lapsed unpaid invoices to overdue.
func (p *TaskProcessor) HandleInvoiceCheckOverdueTask(ctx context.Context, t *asynq.Task) error {
	log.Println("Starting overdue invoice check task...")

	count, err := p.billingService.SweepOverdueInvoices(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("Overdue invoice check task failed: %v", err)
		return err
	}

	log.Printf("Overdue invoice check task finished. Flagged %d invoices.", count)
	return nil
}
