package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TitleDelimiter separa el nombre de la ubicación del resto del título en la
// convención "<NombreUbicación>#<resto>" que usa el sincronizador.
const TitleDelimiter = "#"

// Product representa un producto del catálogo. AveragePurchasePrice(Net) es
// el costo promedio ponderado que recalcula el motor al completar traslados.
type Product struct {
	ID                      string
	Title                   string
	Price                   decimal.Decimal
	AveragePurchasePrice    decimal.Decimal
	AveragePurchasePriceNet decimal.Decimal
	MarkupAmount            decimal.Decimal
	MarkupMeasurement       string // PERCENT | AMOUNT
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// TitleLocationPrefix devuelve el prefijo de ubicación del título ("Bodega"
// para "Bodega#Tornillo M4") o "" si el título no sigue la convención.
func (p *Product) TitleLocationPrefix() string {
	i := strings.Index(p.Title, TitleDelimiter)
	if i <= 0 {
		return ""
	}
	return p.Title[:i]
}

// TitleRest devuelve el resto del título después del delimitador, o el
// título completo si no sigue la convención.
func (p *Product) TitleRest() string {
	i := strings.Index(p.Title, TitleDelimiter)
	if i < 0 {
		return p.Title
	}
	return p.Title[i+len(TitleDelimiter):]
}
