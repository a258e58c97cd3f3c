package consumer

import (
	"fmt"
	"regexp"
)

var regexPeriod = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

func validateAttendance(payload AttendancePayload) string {
	if payload.Period == "" {
		return "required field 'period'"
	}

	if !regexPeriod.MatchString(payload.Period) {
		return fmt.Sprintf("invalid value in field 'period'=%s", payload.Period)
	}

	if payload.TotalDays <= 0 {
		return fmt.Sprintf("invalid value in field 'total_days'=%d", payload.TotalDays)
	}

	if payload.PresentDays < 0 || payload.PresentDays > payload.TotalDays {
		return fmt.Sprintf("invalid value in field 'present_days'=%d", payload.PresentDays)
	}

	if payload.LOPDays < 0 || payload.LOPDays > payload.TotalDays {
		return fmt.Sprintf("invalid value in field 'lop_days'=%d", payload.LOPDays)
	}

	if payload.OvertimeHours < 0 {
		return fmt.Sprintf("invalid value in field 'overtime_hours'=%v", payload.OvertimeHours)
	}

	return ""
}
