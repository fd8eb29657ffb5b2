package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gymcrm/internal/domain/attendance"
	"gymcrm/internal/domain/client"
	"gymcrm/internal/domain/dates"
	"gymcrm/internal/domain/payment"
	"gymcrm/internal/domain/sale"
)

// ErrRejected marks a record dropped at ingestion.
var ErrRejected = errors.New("record rejected")

// Rejection describes one record dropped at ingestion.
type Rejection struct {
	Collection string
	ID         string
	Reason     string
}

// Batch is the normalized content of one collection.
type Batch[T any] struct {
	Records  []T
	Rejected []Rejection
}

func reject(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRejected, fmt.Sprintf(format, args...))
}

// normalizePayment converts a wire payment into the domain model.
// Unknown plan names, negative amounts and missing clients are rejected.
// An unreadable date is kept as the zero date.
func normalizePayment(dto pagoDTO) (payment.Payment, error) {
	typ, err := payment.ParseMembershipType(dto.Tipo)
	if err != nil {
		return payment.Payment{}, reject("tipo %q", dto.Tipo)
	}
	amount, err := parseAmount(dto.Monto)
	if err != nil {
		return payment.Payment{}, reject("monto %q", string(dto.Monto))
	}
	p := payment.Payment{
		ID:             strings.TrimSpace(string(dto.ID)),
		ClientID:       strings.TrimSpace(string(dto.ClienteID)),
		Amount:         amount,
		MembershipType: typ,
		Paid:           bool(dto.Pagado),
		Method:         strings.TrimSpace(dto.Metodo),
	}
	if d, err := dates.Parse(string(dto.FechaPago)); err == nil {
		p.PaymentDate = d
	} else {
		slog.Warn("payment_date_invalid", "id", p.ID, "fecha_pago", string(dto.FechaPago))
	}
	if err := p.Validate(); err != nil {
		return payment.Payment{}, reject("%v", err)
	}
	return p, nil
}

func normalizeClient(dto clienteDTO) (client.Client, error) {
	c := client.Client{
		ID:     strings.TrimSpace(string(dto.ID)),
		Name:   strings.TrimSpace(dto.Nombre),
		Email:  strings.TrimSpace(dto.Email),
		Phone:  strings.TrimSpace(string(dto.Telefono)),
		DNI:    strings.TrimSpace(string(dto.DNI)),
		Active: dto.Activo == nil || bool(*dto.Activo),
	}
	if d, err := dates.Parse(string(dto.FechaRegistro)); err == nil {
		c.RegistrationDate = d
	}
	if err := c.Validate(); err != nil {
		return client.Client{}, reject("%v", err)
	}
	return c, nil
}

// normalizeAttendance reads zone-less check-in times in loc, the gym's time zone.
func normalizeAttendance(dto asistenciaDTO, loc *time.Location) (attendance.Attendance, error) {
	in, err := dates.ParseTimestampIn(string(dto.HoraIngreso), loc)
	if err != nil {
		return attendance.Attendance{}, reject("hora_ingreso %q", string(dto.HoraIngreso))
	}
	a := attendance.Attendance{
		ID:          strings.TrimSpace(string(dto.ID)),
		ClientID:    strings.TrimSpace(string(dto.ClienteID)),
		CheckInTime: in,
	}
	if out, err := dates.ParseTimestampIn(string(dto.HoraSalida), loc); err == nil {
		a.CheckOutTime = out
	}
	if err := a.Validate(); err != nil {
		return attendance.Attendance{}, reject("%v", err)
	}
	return a, nil
}

func normalizeSale(dto ventaDTO) (sale.Sale, error) {
	raw := dto.FechaVenta
	if raw == "" {
		raw = dto.Fecha
	}
	total, err := parseAmount(dto.Total)
	if err != nil {
		return sale.Sale{}, reject("total %q", string(dto.Total))
	}
	s := sale.Sale{
		ID:       strings.TrimSpace(string(dto.ID)),
		ClientID: strings.TrimSpace(string(dto.ClienteID)),
		Total:    total,
	}
	if d, err := dates.Parse(string(raw)); err == nil {
		s.Date = d
	}
	if err := s.Validate(); err != nil {
		return sale.Sale{}, reject("%v", err)
	}
	return s, nil
}

func parseAmount(raw flexString) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(string(raw)))
}

// normalizeAll decodes and normalizes every element, collecting rejections
// instead of failing the collection.
func normalizeAll[D, T any](collection string, raws []json.RawMessage, id func(D) string, fn func(D) (T, error)) Batch[T] {
	out := Batch[T]{Records: make([]T, 0, len(raws))}
	for _, raw := range raws {
		var dto D
		rec, err := decodeRecord(raw, &dto, fn)
		if err != nil {
			r := Rejection{Collection: collection, ID: id(dto), Reason: err.Error()}
			slog.Warn("record_rejected", "collection", r.Collection, "id", r.ID, "reason", r.Reason)
			out.Rejected = append(out.Rejected, r)
			continue
		}
		out.Records = append(out.Records, rec)
	}
	return out
}

func decodeRecord[D, T any](raw json.RawMessage, dto *D, fn func(D) (T, error)) (T, error) {
	if err := json.Unmarshal(raw, dto); err != nil {
		var zero T
		return zero, reject("malformed record: %v", err)
	}
	return fn(*dto)
}
