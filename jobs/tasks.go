// Package jobs runs background work: document emails and the periodic
// status scans that expire proformas and flag overdue invoices.
package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue every task goes to.
	QueueDefault = "default"

	// TaskTypeDocumentEmail delivers a document by email with its PDF.
	TaskTypeDocumentEmail = "document:email"
	// TaskTypeExpiryScan expires sent proformas past their validity date.
	TaskTypeExpiryScan = "proforma:expiry_scan"
	// TaskTypeOverdueScan flags sent and partially paid invoices past due.
	TaskTypeOverdueScan = "invoice:overdue_scan"
)

// DocumentEmailPayload identifies the document to send. DocType is either
// "proforma" or "invoice".
type DocumentEmailPayload struct {
	DocType    string `json:"doc_type"`
	DocumentID int64  `json:"document_id"`
}

// NewDocumentEmailTask constructs the email task.
func NewDocumentEmailTask(payload DocumentEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeDocumentEmail, data, asynq.MaxRetry(3)), nil
}

// Client submits jobs to the queue. It satisfies the enqueuer interface the
// HTTP layer uses after sending a document.
type Client struct {
	client *asynq.Client
}

func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueDocumentEmail queues a document email.
func (c *Client) EnqueueDocumentEmail(ctx context.Context, docType string, documentID int64) error {
	task, err := NewDocumentEmailTask(DocumentEmailPayload{DocType: docType, DocumentID: documentID})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
