package core

import (
	"fmt"

	"attendance.service/internal/core/model"
)

const (
	employeeListPrefix   = "employees:list:"
	employeeDetailPrefix = "employee:detail:"
	historyPrefix        = "attendance:history:"
	monitoringPrefix     = "attendance:monitoring:"
)

func employeeListKey(p model.Page) string {
	return fmt.Sprintf("%s%d:%d", employeeListPrefix, p.Page, p.Limit)
}

func employeeDetailKey(id string) string {
	return employeeDetailPrefix + id
}

func historyEmployeePrefix(employeeID string) string {
	return historyPrefix + employeeID + ":"
}

func historyKey(employeeID, start, end string, p model.Page) string {
	return fmt.Sprintf("%s%s:%s:%d:%d", historyEmployeePrefix(employeeID), start, end, p.Page, p.Limit)
}

func monitoringKey(start, end string, p model.Page) string {
	return fmt.Sprintf("%s%s:%s:%d:%d", monitoringPrefix, start, end, p.Page, p.Limit)
}
