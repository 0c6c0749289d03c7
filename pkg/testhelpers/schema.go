// Package testhelpers provides shared fixtures for tests: a small clinic
// schema with a connected core, a detached component, and an isolated
// table.
package testhelpers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/klinika-ai/klinika-engine/pkg/models"
	"github.com/klinika-ai/klinika-engine/pkg/schema"
)

func fk(table, column string) *models.ForeignKeyRef {
	return &models.ForeignKeyRef{Table: table, Column: column}
}

// ClinicDescriptor returns the clinic fixture schema.
//
// Connected core: patient, doctor, visit, diagnosis, prescription, with
// visit as the hub. Detached pair: billing and payment reference each
// other but nothing reaches them from the core. audit_log stands alone.
func ClinicDescriptor() *schema.Descriptor {
	return &schema.Descriptor{
		Database: "clinic",
		Tables: []models.Table{
			{
				Name:     "patient",
				Category: "master",
				Role:     "registered patients",
				RowCount: 52000,
				Columns: []models.Column{
					{Name: "patient_id", DataType: "varchar(15)", PrimaryKey: true},
					{Name: "name", DataType: "varchar(80)", Sensitive: true},
					{Name: "birth_date", DataType: "date"},
					{Name: "address", DataType: "text", Nullable: true, Sensitive: true},
				},
				SampleRows: []map[string]any{
					{"patient_id": "P0001", "name": "Ana Wijaya", "birth_date": "1988-04-02"},
				},
			},
			{
				Name:     "doctor",
				Category: "master",
				Role:     "attending physicians",
				RowCount: 120,
				Columns: []models.Column{
					{Name: "doctor_id", DataType: "varchar(10)", PrimaryKey: true},
					{Name: "name", DataType: "varchar(80)"},
					{Name: "specialty", DataType: "varchar(40)", Nullable: true},
				},
			},
			{
				Name:     "visit",
				Category: "transaction",
				Role:     "patient visit registrations",
				RowCount: 480000,
				Columns: []models.Column{
					{Name: "visit_id", DataType: "varchar(17)", PrimaryKey: true},
					{Name: "patient_id", DataType: "varchar(15)", References: fk("patient", "patient_id")},
					{Name: "doctor_id", DataType: "varchar(10)", References: fk("doctor", "doctor_id")},
					{Name: "visit_date", DataType: "datetime"},
				},
			},
			{
				Name:     "diagnosis",
				Category: "transaction",
				Role:     "diagnoses recorded per visit",
				RowCount: 610000,
				Columns: []models.Column{
					{Name: "diagnosis_id", DataType: "int", PrimaryKey: true},
					{Name: "visit_id", DataType: "varchar(17)", References: fk("visit", "visit_id")},
					{Name: "icd_code", DataType: "varchar(10)"},
					{Name: "description", DataType: "text", Nullable: true},
				},
			},
			{
				Name:     "prescription",
				Category: "transaction",
				Role:     "drugs prescribed per visit",
				RowCount: 350000,
				Columns: []models.Column{
					{Name: "prescription_id", DataType: "int", PrimaryKey: true},
					{Name: "visit_id", DataType: "varchar(17)", References: fk("visit", "visit_id")},
					{Name: "drug_name", DataType: "varchar(60)"},
					{Name: "dose", DataType: "varchar(30)", Nullable: true},
				},
			},
			{
				Name:     "billing",
				Category: "finance",
				Role:     "invoices issued",
				RowCount: 95000,
				Columns: []models.Column{
					{Name: "billing_id", DataType: "int", PrimaryKey: true},
					{Name: "invoice_no", DataType: "varchar(20)"},
					{Name: "amount", DataType: "decimal(12,2)"},
				},
			},
			{
				Name:     "payment",
				Category: "finance",
				Role:     "payments against invoices",
				RowCount: 90000,
				Columns: []models.Column{
					{Name: "payment_id", DataType: "int", PrimaryKey: true},
					{Name: "billing_id", DataType: "int", References: fk("billing", "billing_id")},
					{Name: "paid_at", DataType: "datetime"},
				},
			},
			{
				Name:     "audit_log",
				Category: "system",
				Role:     "application audit trail",
				RowCount: 2000000,
				Columns: []models.Column{
					{Name: "log_id", DataType: "bigint", PrimaryKey: true},
					{Name: "actor", DataType: "varchar(40)"},
					{Name: "action", DataType: "varchar(200)"},
				},
			},
		},
	}
}

// ClinicModel builds the validated model for the clinic fixture.
func ClinicModel(t *testing.T) *schema.Model {
	t.Helper()
	model, err := schema.NewModel(ClinicDescriptor())
	require.NoError(t, err)
	return model
}
