package inventory

import "github.com/shopspring/decimal"

// CostCalculator implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
// Un stock actual negativo o nulo no aporta al promedio: el costo pasa a ser el de la entrada.
func CostCalculator(stockActual int64, costoActual decimal.Decimal, cantEntrada int64, costoEntrada decimal.Decimal) decimal.Decimal {
	if stockActual < 0 {
		stockActual = 0
	}
	sum := stockActual + cantEntrada
	if sum <= 0 {
		return decimal.Zero
	}
	num := decimal.NewFromInt(stockActual).Mul(costoActual).
		Add(decimal.NewFromInt(cantEntrada).Mul(costoEntrada))
	return num.Div(decimal.NewFromInt(sum)).Round(4)
}

// TotalCost devuelve unitCost * quantity como NullDecimal; inválido si no hay costo unitario.
func TotalCost(unitCost decimal.NullDecimal, quantity int64) decimal.NullDecimal {
	if !unitCost.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(unitCost.Decimal.Mul(decimal.NewFromInt(quantity)))
}
