// seed_catalog genera el script SQL de carga inicial del catálogo de repuestos a partir de la
// exportación CSV de la hoja de bodega (Excel, separador ';', codificación Windows-1252).
//
// Uso: go run ./cmd/seed_catalog [ruta/catalogo.csv]
// Columnas: codigo;nombre;categoria;unidad;existencia
// Escribe: internal/infrastructure/postgres/migrations/002_seed_catalog.sql
//
// La existencia inicial queda registrada como movimiento de entrada del producto.
package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

type row struct {
	code, name, category, unit string
	stock                      decimal.Decimal
}

func main() {
	csvPath := "catalogo.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	rows, skipped, err := readCatalog(transform.NewReader(f, charmap.Windows1252.NewDecoder()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	moduleRoot := findModuleRoot()
	outPath := filepath.Join(moduleRoot, "internal", "infrastructure", "postgres", "migrations", "002_seed_catalog.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	out.WriteString("-- Catálogo inicial de repuestos e insumos\n")
	out.WriteString("-- Generado desde " + filepath.Base(csvPath) + "\n\n")

	withStock := 0
	for _, r := range rows {
		if !r.stock.IsPositive() {
			fmt.Fprintf(out, "INSERT INTO products (id, name, category, unit_measure) VALUES ('%s', '%s', '%s', '%s')\n  ON CONFLICT (id) DO NOTHING;\n",
				escapeSQL(r.code), escapeSQL(r.name), escapeSQL(r.category), escapeSQL(r.unit))
			continue
		}
		withStock++
		fmt.Fprintf(out, "WITH p AS (\n  INSERT INTO products (id, name, category, unit_measure, on_hand) VALUES ('%s', '%s', '%s', '%s', %s)\n  ON CONFLICT (id) DO NOTHING\n  RETURNING id, on_hand\n)\n",
			escapeSQL(r.code), escapeSQL(r.name), escapeSQL(r.category), escapeSQL(r.unit), r.stock.String())
		out.WriteString("INSERT INTO stock_movements (id, product_id, kind, quantity, occurred_at, reference, created_by)\n")
		fmt.Fprintf(out, "SELECT '%s', id, 'entry', on_hand, now(), 'inventario inicial', 'seed_catalog' FROM p;\n",
			uuid.New().String())
	}

	fmt.Printf("Generado %s: %d productos (%d con existencia inicial), %d filas descartadas\n",
		outPath, len(rows), withStock, skipped)
}

func readCatalog(in io.Reader) ([]row, int, error) {
	r := csv.NewReader(in)
	r.Comma = ';'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true

	var (
		rows    []row
		skipped int
		seen    = map[string]bool{}
	)
	for line := 1; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("línea %d: %w", line, err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "codigo") {
			continue
		}
		if len(rec) < 2 {
			skipped++
			continue
		}
		code := strings.TrimSpace(rec[0])
		name := strings.TrimSpace(rec[1])
		if code == "" || name == "" || seen[code] {
			skipped++
			continue
		}
		seen[code] = true

		it := row{code: code, name: name, unit: "UND"}
		if len(rec) > 2 {
			it.category = strings.TrimSpace(rec[2])
		}
		if len(rec) > 3 && strings.TrimSpace(rec[3]) != "" {
			it.unit = strings.ToUpper(strings.TrimSpace(rec[3]))
		}
		if len(rec) > 4 {
			// Excel en es-CO exporta la coma como separador decimal.
			raw := strings.ReplaceAll(strings.TrimSpace(rec[4]), ",", ".")
			if raw != "" {
				qty, err := decimal.NewFromString(raw)
				if err != nil || qty.IsNegative() {
					fmt.Fprintf(os.Stderr, "línea %d: existencia inválida %q, se carga en cero\n", line, rec[4])
				} else {
					it.stock = qty
				}
			}
		}
		rows = append(rows, it)
	}
	return rows, skipped, nil
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
