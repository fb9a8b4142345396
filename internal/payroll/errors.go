package payroll

import "errors"

var (
	// ErrOutletSettingsNotFound blocks payroll derivation without a base salary.
	ErrOutletSettingsNotFound = errors.New("outlet settings not found")
	// ErrNoUnpaidPayroll is returned once every period fallback is exhausted.
	ErrNoUnpaidPayroll = errors.New("no unpaid payroll in period")
	// ErrNoPayrollData means neither unpaid lines nor a past batch exist.
	ErrNoPayrollData = errors.New("no payroll data for employee")
	// ErrAlreadyComputed guards one payroll line per attendance.
	ErrAlreadyComputed = errors.New("payroll already computed for attendance")
	// ErrNotFound indicates a missing payroll row.
	ErrNotFound = errors.New("payroll not found")
)
