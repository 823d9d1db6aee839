package ports

import "time"

type SchedulerService interface {
	Start()
	Stop()

	ScheduleTaskRepeated(every time.Duration, task func()) error
}
