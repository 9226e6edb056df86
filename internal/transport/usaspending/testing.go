package usaspending

import "time"

// SetClockForTest pins the clock used to resolve the default window (test-only).
func (c *Client) SetClockForTest(now func() time.Time) { c.now = now }
