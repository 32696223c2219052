package rpc

import (
	"context"
	"time"

	"rxdesk/m/domain"
	"rxdesk/m/internal/auth"
	"rxdesk/m/internal/clinic"
	"rxdesk/m/internal/store"
)

type empty struct{}

type ack struct {
	OK bool `json:"ok"`
}

type idInput struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}

type prescriptionRef struct {
	PrescriptionID int64 `json:"prescription_id" validate:"required,gt=0"`
}

type fillInput struct {
	ItemID         int64 `json:"item_id" validate:"required,gt=0"`
	QuantityFilled int64 `json:"quantity_filled" validate:"gte=0"`
}

// statusInput leaves the status value to the domain check so unknown values
// surface as an invalid status.
type statusInput struct {
	ID     int64  `json:"id" validate:"required,gt=0"`
	Status string `json:"status" validate:"required"`
}

type lowStockInput struct {
	Threshold *int64 `json:"threshold,omitempty" validate:"omitempty,gte=0"`
}

type expiringInput struct {
	Days int        `json:"days" validate:"gte=0,lte=3650"`
	AsOf *time.Time `json:"as_of,omitempty"`
}

type dashboardInput struct {
	AsOf              *time.Time `json:"as_of,omitempty"`
	LowStockThreshold *int64     `json:"low_stock_threshold,omitempty" validate:"omitempty,gte=0"`
}

// anyStaff admits every authenticated caller.
var anyStaff []string

var (
	adminOnly    = []string{domain.RoleAdmin}
	prescribers  = []string{domain.RoleAdmin, domain.RoleDoctor}
	dispensers   = []string{domain.RoleAdmin, domain.RolePharmacist}
	frontDesk    = []string{domain.RoleAdmin, domain.RoleDoctor, domain.RoleReceptionist}
	cashiers     = []string{domain.RoleAdmin, domain.RoleReceptionist, domain.RolePharmacist}
	stockKeepers = dispensers
)

func (h *Handler) asOf(t *time.Time) time.Time {
	if t != nil {
		return *t
	}
	return h.now()
}

// register builds the procedure table.
func (h *Handler) register() map[string]procedure {
	svc := h.svc
	return map[string]procedure{
		// auth
		"auth.register": {public: true, call: typed(h, func(ctx context.Context, _ *auth.Claims, in clinic.RegisterInput) (*clinic.Session, error) {
			return svc.Register(ctx, in)
		})},
		"auth.login": {public: true, call: typed(h, func(ctx context.Context, _ *auth.Claims, in clinic.LoginInput) (*clinic.Session, error) {
			return svc.Login(ctx, in)
		})},
		"auth.me": {roles: anyStaff, call: typed(h, func(ctx context.Context, c *auth.Claims, _ empty) (*domain.User, error) {
			return svc.Me(ctx, c.UserID)
		})},
		"auth.changePassword": {roles: anyStaff, call: typed(h, func(ctx context.Context, c *auth.Claims, in clinic.ChangePasswordInput) (ack, error) {
			return ack{OK: true}, svc.ChangePassword(ctx, c.UserID, in)
		})},

		// users
		"users.list": {roles: adminOnly, call: typed(h, func(ctx context.Context, _ *auth.Claims, in clinic.UserQuery) ([]domain.User, error) {
			return svc.ListUsers(ctx, in)
		})},
		"users.create": {roles: adminOnly, call: typed(h, func(ctx context.Context, _ *auth.Claims, in clinic.RegisterInput) (*domain.User, error) {
			return svc.CreateUser(ctx, in)
		})},
		"users.doctors": {roles: anyStaff, call: typed(h, func(ctx context.Context, _ *auth.Claims, _ empty) ([]domain.User, error) {
			return svc.ListUsers(ctx, clinic.UserQuery{Role: domain.RoleDoctor})
		})},

		// patients
		"patients.create": {roles: frontDesk, call: typed(h, func(ctx context.Context, _ *auth.Claims, in clinic.PatientInput) (*domain.Patient, error) {
			return svc.CreatePatient(ctx, in)
		})},
		"patients.get": {roles: anyStaff, call: typed(h, func(ctx context.Context, _ *auth.Claims, in idInput) (*domain.Patient, error) {
			return svc.GetPatient(ctx, in.ID)
		})},
		"patients.update": {roles: frontDesk, call: typed(h, func(ctx context.Context, _ *auth.Claims, in clinic.PatientUpdate) (*domain.Patient, error) {
			return svc.UpdatePatient(ctx, in)
		})},
		"patients.delete": {roles: adminOnly, call: typed(h, func(ctx context.Context, _ *auth.Claims, in idInput) (ack, error) {
			return ack{OK: true}, svc.DeletePatient(ctx, in.ID)
		})},
		"patients.search": {roles: anyStaff, call: typed(h, func(ctx context.Context, _ *auth.Claims, in clinic.PatientQuery) (clinic.Paged[domain.Patient], error) {
			return svc.SearchPatients(ctx, in)
		})},

		// medicines
		"medicines.create": {roles: stockKeepers, call: typed(h, func(ctx context.Context, _ *auth.Claims, in clinic.MedicineInput) (*domain.Medicine, error) {
			return svc.CreateMedicine(ctx, in)
		})},
		"medicines.get": {roles: anyStaff, call: typed(h, func(ctx context.Context, _ *auth.Claims, in idInput) (*domain.Medicine, error) {
			return svc.GetMedicine(ctx, in.ID)
		})},
		"medicines.update": {roles: stockKeepers, call: typed(h, func(ctx context.Context, _ *auth.Claims, in clinic.MedicineUpdate) (*domain.Medicine, error) {
			return svc.UpdateMedicine(ctx, in)
		})},
		"medicines.delete": {roles: stockKeepers, call: typed(h, func(ctx context.Context, _ *auth.Claims, in idInput) (ack, error) {
			return ack{OK: true}, svc.DeleteMedicine(ctx, in.ID)
		})},
		"medicines.search": {roles: anyStaff, call: typed(h, func(ctx context.Context, _ *auth.Claims, in clinic.MedicineQuery) (clinic.Paged[domain.Medicine], error) {
			return svc.SearchMedicines(ctx, in)
		})},
		"medicines.adjustStock": {roles: stockKeepers, call: typed(h, func(ctx context.Context, _ *auth.Claims, in clinic.StockAdjustment) (*domain.Medicine, error) {
			return svc.AdjustStock(ctx, in)
		})},
		"medicines.lowStock": {roles: anyStaff, call: typed(h, func(ctx context.Context, _ *auth.Claims, in lowStockInput) ([]domain.Medicine, error) {
			return svc.LowStock(ctx, in.Threshold)
		})},
		"medicines.expiring": {roles: anyStaff, call: typed(h, func(ctx context.Context, _ *auth.Claims, in expiringInput) ([]domain.Medicine, error) {
			return svc.Expiring(ctx, h.asOf(in.AsOf), in.Days)
		})},

		// prescriptions
		"prescriptions.create": {roles: prescribers, call: typed(h, func(ctx context.Context, _ *auth.Claims, in clinic.PrescriptionInput) (*domain.Prescription, error) {
			return svc.CreatePrescription(ctx, in)
		})},
		"prescriptions.get": {roles: anyStaff, call: typed(h, func(ctx context.Context, _ *auth.Claims, in idInput) (*domain.Prescription, error) {
			return svc.GetPrescription(ctx, in.ID)
		})},
		"prescriptions.items": {roles: anyStaff, call: typed(h, func(ctx context.Context, _ *auth.Claims, in prescriptionRef) ([]store.ItemDetail, error) {
			return svc.PrescriptionItems(ctx, in.PrescriptionID)
		})},
		"prescriptions.list": {roles: anyStaff, call: typed(h, func(ctx context.Context, _ *auth.Claims, in clinic.PrescriptionQuery) (clinic.Paged[domain.Prescription], error) {
			return svc.ListPrescriptions(ctx, in)
		})},
		"prescriptions.fillItem": {roles: dispensers, call: typed(h, func(ctx context.Context, _ *auth.Claims, in fillInput) (*domain.PrescriptionItem, error) {
			return svc.FillPrescriptionItem(ctx, in.ItemID, in.QuantityFilled)
		})},
		"prescriptions.updateStatus": {roles: prescribers, call: typed(h, func(ctx context.Context, _ *auth.Claims, in statusInput) (*domain.Prescription, error) {
			return svc.UpdatePrescriptionStatus(ctx, in.ID, in.Status)
		})},

		// payments
		"payments.create": {roles: cashiers, call: typed(h, func(ctx context.Context, _ *auth.Claims, in clinic.PaymentInput) (*domain.Payment, error) {
			return svc.CreatePayment(ctx, in)
		})},
		"payments.get": {roles: cashiers, call: typed(h, func(ctx context.Context, _ *auth.Claims, in idInput) (*domain.Payment, error) {
			return svc.GetPayment(ctx, in.ID)
		})},
		"payments.list": {roles: cashiers, call: typed(h, func(ctx context.Context, _ *auth.Claims, in clinic.PaymentQuery) (clinic.Paged[domain.Payment], error) {
			return svc.ListPayments(ctx, in)
		})},
		"payments.refund": {roles: cashiers, call: typed(h, func(ctx context.Context, _ *auth.Claims, in idInput) (*domain.Payment, error) {
			return svc.RefundPayment(ctx, in.ID)
		})},

		// reports
		"reports.salesByDate": {roles: adminOnly, call: typed(h, func(ctx context.Context, _ *auth.Claims, in clinic.DateRange) ([]clinic.DateSales, error) {
			return svc.SalesByDate(ctx, in)
		})},
		"reports.salesByDoctor": {roles: adminOnly, call: typed(h, func(ctx context.Context, _ *auth.Claims, in clinic.DateRange) ([]clinic.DoctorSales, error) {
			return svc.SalesByDoctor(ctx, in)
		})},
		"reports.salesByCategory": {roles: adminOnly, call: typed(h, func(ctx context.Context, _ *auth.Claims, in clinic.DateRange) ([]clinic.CategorySales, error) {
			return svc.SalesByCategory(ctx, in)
		})},
		"reports.usageByMedicine": {roles: adminOnly, call: typed(h, func(ctx context.Context, _ *auth.Claims, in clinic.DateRange) ([]store.MedicineUsage, error) {
			return svc.UsageByMedicine(ctx, in)
		})},
		"reports.usageByCategory": {roles: adminOnly, call: typed(h, func(ctx context.Context, _ *auth.Claims, in clinic.DateRange) ([]store.CategoryUsage, error) {
			return svc.UsageByCategory(ctx, in)
		})},
		"reports.usageByDate": {roles: adminOnly, call: typed(h, func(ctx context.Context, _ *auth.Claims, in clinic.DateRange) ([]clinic.DateUsage, error) {
			return svc.UsageByDate(ctx, in)
		})},
		"reports.dashboard": {roles: adminOnly, call: typed(h, func(ctx context.Context, _ *auth.Claims, in dashboardInput) (*clinic.Dashboard, error) {
			return svc.Dashboard(ctx, h.asOf(in.AsOf), in.LowStockThreshold)
		})},
	}
}
