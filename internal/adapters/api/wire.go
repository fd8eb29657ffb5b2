package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// flexString accepts a JSON string, number or null.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*s = flexString(n.String())
	return nil
}

// flexBool accepts true/false, 0/1 and their quoted forms.
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	var raw flexString
	if err := raw.UnmarshalJSON(b); err != nil {
		return err
	}
	switch raw {
	case "", "0", "false":
		*f = false
		return nil
	case "1", "true":
		*f = true
		return nil
	}
	if v, err := strconv.ParseBool(string(raw)); err == nil {
		*f = flexBool(v)
		return nil
	}
	return fmt.Errorf("invalid boolean %q", string(raw))
}

// pagoDTO is one element of GET /pagos.
type pagoDTO struct {
	ID        flexString `json:"id"`
	ClienteID flexString `json:"cliente_id"`
	Monto     flexString `json:"monto"`
	Tipo      string     `json:"tipo"`
	FechaPago flexString `json:"fecha_pago"`
	Pagado    flexBool   `json:"pagado"`
	Metodo    string     `json:"metodo"`
}

// clienteDTO is one element of GET /clientes.
type clienteDTO struct {
	ID            flexString `json:"id"`
	Nombre        string     `json:"nombre"`
	Email         string     `json:"email"`
	Telefono      flexString `json:"telefono"`
	DNI           flexString `json:"dni"`
	FechaRegistro flexString `json:"fecha_registro"`
	Activo        *flexBool  `json:"activo"`
}

// asistenciaDTO is one element of GET /asistencias.
type asistenciaDTO struct {
	ID          flexString `json:"id"`
	ClienteID   flexString `json:"cliente_id"`
	HoraIngreso flexString `json:"hora_ingreso"`
	HoraSalida  flexString `json:"hora_salida"`
}

// ventaDTO is one element of GET /ventas. Older backends send "fecha".
type ventaDTO struct {
	ID         flexString `json:"id"`
	ClienteID  flexString `json:"cliente_id"`
	Total      flexString `json:"total"`
	FechaVenta flexString `json:"fecha_venta"`
	Fecha      flexString `json:"fecha"`
}
