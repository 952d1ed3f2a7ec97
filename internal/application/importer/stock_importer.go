// Package importer carga stock masivo desde planillas CSV a través del ledger,
// de modo que cada cambio de cantidad quede registrado como movimiento.
package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/application/inventory"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain"
)

const defaultWorkers = 4

// Ledger escritor usado por el importador.
type Ledger interface {
	RecordCreation(ctx context.Context, in inventory.CreationInput) (*inventory.MovementResult, error)
	RecordAdjustment(ctx context.Context, in inventory.AdjustmentInput) (*inventory.MovementResult, error)
}

// LevelChecker consulta si el producto ya tiene stock registrado.
type LevelChecker interface {
	Exists(ctx context.Context, productID string) bool
}

// Options parámetros de una importación.
type Options struct {
	ActorID string
	// Workers productos procesados en paralelo (<= 0 usa el valor por defecto).
	Workers int
	// Source nombre del archivo, solo para las notas del movimiento.
	Source string
}

// RowError fila rechazada.
type RowError struct {
	Line      int    `json:"line"`
	ProductID string `json:"product_id,omitempty"`
	Message   string `json:"message"`
}

// Report resultado de la importación.
type Report struct {
	Rows     int           `json:"rows"`
	Created  int           `json:"created"`
	Adjusted int           `json:"adjusted"`
	Failed   int           `json:"failed"`
	Errors   []RowError    `json:"errors"`
	Duration time.Duration `json:"duration"`
}

type row struct {
	line      int
	productID string
	quantity  int64
	unitCost  decimal.NullDecimal
}

// StockImporter procesa archivos `product_id,quantity[,unit_cost]`.
// Productos nuevos pasan por RecordCreation; existentes por RecordAdjustment.
type StockImporter struct {
	ledger Ledger
	levels LevelChecker
	log    zerolog.Logger
}

// NewStockImporter construye el importador.
func NewStockImporter(ledger Ledger, levels LevelChecker, log zerolog.Logger) *StockImporter {
	return &StockImporter{
		ledger: ledger,
		levels: levels,
		log:    log.With().Str("component", "stock_importer").Logger(),
	}
}

// Import lee r completo y aplica cada fila. Los errores por fila no detienen el lote:
// se registran y se acumulan en Report.Errors. Solo un archivo ilegible o un contexto
// cancelado devuelven error.
func (im *StockImporter) Import(ctx context.Context, r io.Reader, opts Options) (*Report, error) {
	start := time.Now()
	if strings.TrimSpace(opts.ActorID) == "" {
		return nil, domain.Invalid("actor_id", "es obligatorio")
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	rows, rejected, err := parse(r)
	if err != nil {
		return nil, err
	}
	report := &Report{Rows: len(rows) + len(rejected), Errors: rejected, Failed: len(rejected)}
	for _, re := range rejected {
		im.log.Warn().Int("line", re.Line).Str("product_id", re.ProductID).Str("error", re.Message).Msg("fila descartada")
	}

	// Filas del mismo producto se aplican en orden dentro de un único worker.
	groups := make(map[string][]row)
	var order []string
	for _, rw := range rows {
		if _, ok := groups[rw.productID]; !ok {
			order = append(order, rw.productID)
		}
		groups[rw.productID] = append(groups[rw.productID], rw)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, id := range order {
		list := groups[id]
		g.Go(func() error {
			for _, rw := range list {
				if err := gctx.Err(); err != nil {
					return err
				}
				created, err := im.apply(gctx, rw, opts)
				mu.Lock()
				switch {
				case inventory.BestEffort(im.log, "import_row", err):
					report.Failed++
					report.Errors = append(report.Errors, RowError{Line: rw.line, ProductID: rw.productID, Message: err.Error()})
				case created:
					report.Created++
				default:
					report.Adjusted++
				}
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	report.Duration = time.Since(start)
	im.log.Info().
		Int("rows", report.Rows).
		Int("created", report.Created).
		Int("adjusted", report.Adjusted).
		Int("failed", report.Failed).
		Dur("duration", report.Duration).
		Msg("importación de stock finalizada")
	return report, nil
}

func (im *StockImporter) apply(ctx context.Context, rw row, opts Options) (created bool, err error) {
	notes := ""
	if opts.Source != "" {
		notes = fmt.Sprintf("Importación %s, línea %d", opts.Source, rw.line)
	}
	if !im.levels.Exists(ctx, rw.productID) {
		_, err = im.ledger.RecordCreation(ctx, inventory.CreationInput{
			ProductID:       rw.productID,
			ActorID:         opts.ActorID,
			InitialQuantity: rw.quantity,
			UnitCost:        rw.unitCost,
			Notes:           notes,
		})
		// ErrDuplicate: otro escritor lo creó después de la consulta
		if !errors.Is(err, domain.ErrDuplicate) {
			return err == nil, err
		}
	}
	_, err = im.ledger.RecordAdjustment(ctx, inventory.AdjustmentInput{
		ProductID:      rw.productID,
		ActorID:        opts.ActorID,
		TargetQuantity: rw.quantity,
		Notes:          notes,
	})
	return false, err
}

// parse decodifica (UTF-8 o ISO-8859-1), detecta el separador y valida cada fila.
func parse(r io.Reader) ([]row, []RowError, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("leer archivo: %w", err)
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(raw) {
		raw, _, err = transform.Bytes(charmap.ISO8859_1.NewDecoder(), raw)
		if err != nil {
			return nil, nil, fmt.Errorf("decodificar ISO-8859-1: %w", err)
		}
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = detectSeparator(raw)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		rows     []row
		rejected []RowError
	)
	for first := true; ; first = false {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("leer CSV: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if isBlank(rec) {
			continue
		}
		if first && isHeader(rec) {
			continue
		}
		rw, err := parseRow(line, rec)
		if err != nil {
			rejected = append(rejected, RowError{Line: line, ProductID: strings.TrimSpace(rec[0]), Message: err.Error()})
			continue
		}
		rows = append(rows, rw)
	}
	return rows, rejected, nil
}

func parseRow(line int, rec []string) (row, error) {
	if len(rec) < 2 {
		return row{}, domain.Invalid("row", "se esperan al menos product_id y quantity")
	}
	rw := row{line: line, productID: strings.TrimSpace(rec[0])}
	if rw.productID == "" {
		return row{}, domain.Invalid("product_id", "es obligatorio")
	}
	qty, err := strconv.ParseInt(strings.TrimSpace(rec[1]), 10, 64)
	if err != nil {
		return row{}, domain.Invalid("quantity", fmt.Sprintf("valor no entero %q", rec[1]))
	}
	if qty < 0 {
		return row{}, domain.Invalid("quantity", "no puede ser negativa")
	}
	rw.quantity = qty
	if len(rec) > 2 {
		if s := strings.TrimSpace(rec[2]); s != "" {
			// Acepta coma decimal cuando el separador es ';'
			cost, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
			if err != nil {
				return row{}, domain.Invalid("unit_cost", fmt.Sprintf("valor no numérico %q", s))
			}
			rw.unitCost = decimal.NewNullDecimal(cost)
		}
	}
	return rw, nil
}

func detectSeparator(raw []byte) rune {
	first := raw
	if i := bytes.IndexByte(raw, '\n'); i >= 0 {
		first = raw[:i]
	}
	if bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		return ';'
	}
	return ','
}

func isHeader(rec []string) bool {
	if len(rec) < 2 {
		return false
	}
	_, err := strconv.ParseInt(strings.TrimSpace(rec[1]), 10, 64)
	return err != nil
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
