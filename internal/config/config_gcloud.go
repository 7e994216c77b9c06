//go:build gcloud

package config

import (
	"errors"
	"fmt"
)

// Validate checks the Cloud Tasks settings the alarm platform needs. The
// target URL is the fired callback that tasks post back to.
func (c *TaskQueueConfig) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{name: "GCLOUD_PROJECT_ID", value: c.GCloudProjectID},
		{name: "GCLOUD_LOCATION_ID", value: c.GCloudLocationID},
		{name: "GCLOUD_QUEUE_ID", value: c.GCloudQueueID},
		{name: "GCLOUD_TARGET_URL", value: c.GCloudTargetURL},
	}

	var errs []error
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Errorf("%s is required", r.name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("task queue configuration errors: %w", errors.Join(errs...))
	}
	return nil
}
