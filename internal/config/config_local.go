//go:build !gcloud

package config

// Validate is a no-op locally: alarms go to the Redis queue.
func (c *TaskQueueConfig) Validate() error {
	return nil
}
