package cli_test

import "time"

func testNow() time.Time {
	return time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)
}
