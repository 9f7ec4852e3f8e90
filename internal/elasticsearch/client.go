package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	es "github.com/elastic/go-elasticsearch/v9"

	"github.com/Novip1906/tasks-realtime/internal/models"
)

const requestTimeout = 3 * time.Second

// Client mirrors tasks into a search index as task events happen.
type Client struct {
	es    *es.Client
	index string
	log   *slog.Logger
}

type taskDocument struct {
	Id          string     `json:"id"`
	UserId      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority"`
	Completed   bool       `json:"completed"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func newTaskDocument(task *models.Task) taskDocument {
	doc := taskDocument{
		Id:        task.Id,
		UserId:    task.OwnerId,
		Title:     task.Title,
		Priority:  string(task.Priority),
		Completed: task.Completed,
		DueDate:   task.DueDate,
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}
	if task.Description != nil {
		doc.Description = *task.Description
	}
	return doc
}

func NewClient(addresses []string, index string, log *slog.Logger) (*Client, error) {
	cfg := es.Config{
		Addresses: addresses,
	}
	c, err := es.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	client := &Client{
		es:    c,
		index: index,
		log:   log,
	}

	if err := client.ensureIndex(); err != nil {
		return nil, err
	}

	return client, nil
}

func (c *Client) Name() string {
	return "elasticsearch"
}

func (c *Client) Publish(ctx context.Context, event models.Event) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), requestTimeout)
	defer cancel()

	if event.Kind == models.EventTaskDeleted {
		return c.DeleteTask(ctx, event.TaskId)
	}
	if event.Task == nil {
		return nil
	}
	return c.IndexTask(ctx, event.Task)
}

func (c *Client) IndexTask(ctx context.Context, task *models.Task) error {
	body, err := json.Marshal(newTaskDocument(task))
	if err != nil {
		return fmt.Errorf("marshal task document: %w", err)
	}

	res, err := c.es.Index(
		c.index,
		bytes.NewReader(body),
		c.es.Index.WithContext(ctx),
		c.es.Index.WithDocumentID(task.Id),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("es index error: %s", res.String())
	}

	return nil
}

func (c *Client) DeleteTask(ctx context.Context, taskId string) error {
	res, err := c.es.Delete(
		c.index,
		taskId,
		c.es.Delete.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("es delete error: %s", res.String())
	}
	return nil
}

func (c *Client) ensureIndex() error {
	res, err := c.es.Indices.Exists([]string{c.index})
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		c.log.Info("elasticsearch index exists", "index", c.index)
		return nil
	}

	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("unexpected status checking index: %s", res.String())
	}

	c.log.Info("creating elasticsearch index", "index", c.index)

	mapping := `
{
  "mappings": {
    "properties": {
      "id": { "type": "keyword" },
      "user_id": { "type": "keyword" },
      "title": { "type": "text" },
      "description": { "type": "text" },
      "priority": { "type": "keyword" },
      "completed": { "type": "boolean" },
      "due_date": { "type": "date" },
      "created_at": { "type": "date" },
      "updated_at": { "type": "date" }
    }
  }
}`

	createRes, err := c.es.Indices.Create(
		c.index,
		c.es.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("create index error: %s", createRes.String())
	}

	c.log.Info("elasticsearch index created", "index", c.index)
	return nil
}
