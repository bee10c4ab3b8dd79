package worker

import (
	"github.com/filesmanager/filesmanager/internal/model"
	"github.com/filesmanager/filesmanager/internal/queue"
)

// Register binds the job handlers to their queues.
func Register(c *queue.Consumer, t *Thumbnailer, w *Welcomer) {
	c.Handle(model.QueueFile, t.Handle)
	c.Handle(model.QueueUser, w.Handle)
}
