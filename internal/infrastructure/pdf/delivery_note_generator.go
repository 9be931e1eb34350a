// Package pdf implementa la generación de la remisión (nota de entrega) de
// un traslado.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título del traslado  │  Código + Fecha              │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ORIGEN / DESTINO: nombres de ubicación                      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Producto | P. Compra | Subtotal               │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Ítems / Transporte / Costo total                   │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Traslados-api/internal/application/ledger"
	"github.com/jhoicas/Traslados-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// DeliveryNoteGenerator genera la remisión de un traslado usando Maroto v2.
type DeliveryNoteGenerator struct{}

// NewDeliveryNoteGenerator construye el generador.
func NewDeliveryNoteGenerator() *DeliveryNoteGenerator { return &DeliveryNoteGenerator{} }

// Generate genera el PDF de remisión y devuelve sus bytes. origin/destination
// pueden ser nil (traslados con un solo lado de ubicación).
func (g *DeliveryNoteGenerator) Generate(
	_ context.Context,
	move *entity.Move,
	lines []ledger.SnapshotLine,
	origin, destination *entity.Location,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Remisión de traslado", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(move))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(locationsRow(origin, destination))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableLineRows(lines) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(move))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar remisión: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: título del traslado (izq) y código + fecha (der).
func headerRow(move *entity.Move) core.Row {
	fecha := move.CreatedAt.Format("02/01/2006")
	return row.New(18).Add(
		col.New(7).Add(
			text.New(move.Title, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Estado: "+string(move.Status), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("REMISIÓN DE TRASLADO", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(move.HumanID, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+fecha, props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// locationsRow: origen y destino del traslado.
func locationsRow(origin, destination *entity.Location) core.Row {
	name := func(l *entity.Location) string {
		if l == nil {
			return "—"
		}
		return l.DisplayName
	}
	addr := func(l *entity.Location) string {
		if l == nil || l.Address == "" {
			return ""
		}
		return l.Address
	}
	return row.New(16).Add(
		col.New(6).Add(
			text.New("ORIGEN", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(name(origin), props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New(addr(origin), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
		col.New(6).Add(
			text.New("DESTINO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(name(destination), props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New(addr(destination), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de líneas.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 2, align.Center),
		h("Producto", 5, align.Left),
		h("P. Compra", 2, align.Right),
		h("Subtotal", 3, align.Right),
	)
}

// tableLineRows: una fila por línea del traslado.
func tableLineRows(lines []ledger.SnapshotLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		qty := l.Entry.EffectiveQuantity().Abs()
		price := decimal.Zero
		if l.Entry.PurchasePrice != nil {
			price = *l.Entry.PurchasePrice
		}
		title := l.Entry.SourceID
		if l.Product != nil {
			title = l.Product.Title
		}
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(
				qty.StringFixed(0),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(5).Add(text.New(
				title,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				"$"+formatMoney(price.StringFixed(0)),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(3).Add(text.New(
				"$"+formatMoney(price.Mul(qty).StringFixed(0)),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(move *entity.Move) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grandLabel := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 2,
		})
	}
	grandValue := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 1,
		})
	}

	return row.New(26).Add(
		col.New(3),
		col.New(3).Add(
			label("Ítems:"),
			label("Transporte:"),
			grandLabel("COSTO TOTAL:"),
		),
		col.New(3).Add(
			value(move.ItemsCount.StringFixed(0)),
			value("$"+formatMoney(move.TransportPrice.StringFixed(0))),
			grandValue("$"+formatMoney(move.TotalCost.StringFixed(0))),
		),
		col.New(3),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

// formatMoney inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "1000000" → "1.000.000"
func formatMoney(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
