package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/xapktool/xapktool-go/internal/service"
)

// Pool Worker 池: 并发转换多个 bundle 源目录
// 每个任务走独立的暂存目录, 任务之间没有共享可变状态
type Pool struct {
	workers  int
	taskChan chan *Task
	service  *service.BundleService
	logger   *logrus.Logger
	wg       sync.WaitGroup
}

// Task 一个待转换的源目录
type Task struct {
	ID        string
	SourceDir string
	resultCh  chan error // 用于同步等待任务完成
}

// NewPool 创建 Worker 池
func NewPool(workers, queueSize int, svc *service.BundleService, logger *logrus.Logger) *Pool {
	return &Pool{
		workers:  workers,
		taskChan: make(chan *Task, queueSize),
		service:  svc,
		logger:   logger,
	}
}

// Start 启动 Worker 池
func (p *Pool) Start(ctx context.Context) {
	p.logger.WithField("workers", p.workers).Info("Starting worker pool")

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// worker Worker 协程
func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	p.logger.WithField("worker_id", id).Debug("Worker started")

	for {
		select {
		case <-ctx.Done():
			p.logger.WithField("worker_id", id).Info("Worker shutting down")
			return

		case task, ok := <-p.taskChan:
			if !ok {
				p.logger.WithField("worker_id", id).Debug("Task channel closed, worker exiting")
				return
			}

			p.logger.WithFields(logrus.Fields{
				"worker_id":  id,
				"task_id":    task.ID,
				"source_dir": task.SourceDir,
			}).Info("Processing task")

			_, err := p.service.ProcessDirectory(ctx, task.SourceDir)
			if err != nil {
				p.logger.WithError(err).WithFields(logrus.Fields{
					"worker_id": id,
					"task_id":   task.ID,
				}).Error("Bundle conversion failed")
			} else {
				p.logger.WithFields(logrus.Fields{
					"worker_id": id,
					"task_id":   task.ID,
				}).Info("Task completed successfully")
			}

			// 如果有结果通道，发送结果
			if task.resultCh != nil {
				task.resultCh <- err
				close(task.resultCh)
			}
		}
	}
}

// Submit 提交任务（异步，不等待结果）
func (p *Pool) Submit(task *Task) error {
	select {
	case p.taskChan <- task:
		p.logger.WithField("task_id", task.ID).Debug("Task submitted to pool")
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

// SubmitAndWait 提交任务并等待完成
func (p *Pool) SubmitAndWait(ctx context.Context, task *Task) error {
	task.resultCh = make(chan error, 1)

	select {
	case p.taskChan <- task:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-task.resultCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop 关闭任务通道并等待所有 Worker 退出
func (p *Pool) Stop() {
	close(p.taskChan)
	p.wg.Wait()
	p.logger.Info("Worker pool stopped")
}
