package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/payaid/backend/internal/domain/hr"
	"github.com/shopspring/decimal"
)

// EmployeeModel is the persistence model for the Employee aggregate.
type EmployeeModel struct {
	TenantAggregateModel
	EmployeeCode    string            `gorm:"type:varchar(50);not null;index"`
	Name            string            `gorm:"type:varchar(200);not null"`
	Email           string            `gorm:"type:varchar(200)"`
	Phone           string            `gorm:"type:varchar(50)"`
	Department      string            `gorm:"type:varchar(100);index"`
	Designation     string            `gorm:"type:varchar(100)"`
	MonthlySalary   decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	JoinDate        time.Time         `gorm:"type:date;not null"`
	Status          hr.EmployeeStatus `gorm:"type:varchar(20);not null;default:'active';index"`
	TerminationDate *time.Time        `gorm:"type:date"`
	UserID          *uuid.UUID        `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (EmployeeModel) TableName() string {
	return "employees"
}

// ToDomain converts the persistence model to a domain Employee.
func (m *EmployeeModel) ToDomain() *hr.Employee {
	return &hr.Employee{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		EmployeeDetails: hr.EmployeeDetails{
			Name:          m.Name,
			Email:         m.Email,
			Phone:         m.Phone,
			Department:    m.Department,
			Designation:   m.Designation,
			MonthlySalary: m.MonthlySalary,
		},
		EmployeeCode:    m.EmployeeCode,
		JoinDate:        m.JoinDate,
		Status:          m.Status,
		TerminationDate: m.TerminationDate,
		UserID:          m.UserID,
	}
}

// EmployeeModelFromDomain creates a persistence model from a domain Employee.
func EmployeeModelFromDomain(e *hr.Employee) *EmployeeModel {
	m := &EmployeeModel{
		EmployeeCode:    e.EmployeeCode,
		Name:            e.Name,
		Email:           e.Email,
		Phone:           e.Phone,
		Department:      e.Department,
		Designation:     e.Designation,
		MonthlySalary:   e.MonthlySalary,
		JoinDate:        e.JoinDate,
		Status:          e.Status,
		TerminationDate: e.TerminationDate,
		UserID:          e.UserID,
	}
	m.FromDomainTenantAggregateRoot(e.TenantAggregateRoot)
	return m
}
