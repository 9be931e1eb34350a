package moves

import "github.com/shopspring/decimal"

// AveragePriceBlend implementa el costo promedio ponderado (servicio de dominio).
// NuevoPromedio = ((VolumenActual * PromedioActual) + (CantEntrada * CostoEntrada)) / (VolumenActual + CantEntrada)
// Si el volumen actual es negativo se trata como cero: el promedio no debe
// "rebotar" por stock fantasma.
func AveragePriceBlend(volumenActual, promedioActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	if volumenActual.LessThan(decimal.Zero) {
		volumenActual = decimal.Zero
	}
	sum := volumenActual.Add(cantEntrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := volumenActual.Mul(promedioActual).Add(cantEntrada.Mul(costoEntrada))
	return num.Div(sum)
}
