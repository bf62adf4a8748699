//-------------------------------------------------------------------------
//
// pgEdge Sales Cube
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rs/zerolog"
)

// Raw file names written by the generator.
const (
	CustomersFile = "customers_data.csv"
	ProductsFile  = "products_data.csv"
	SalesFile     = "sales_data.csv"
)

// InvalidDate is written where a defect calls for an unparseable date.
const InvalidDate = "2023-13-01"

// Defect kinds.
const (
	DefectMessyText    = "messy_text"
	DefectBlank        = "blank"
	DefectDuplicate    = "duplicate"
	DefectOutlier      = "outlier"
	DefectNegative     = "negative"
	DefectInvalidDate  = "invalid_date"
	DefectOrphan       = "orphan"
	DefectMissingKey   = "missing_key"
	DefectMissingValue = "missing_value"
)

var (
	regions      = []string{"north", "south", "east", "west", "central"}
	categories   = []string{"electronics", "clothing", "home", "sports", "toys", "grocery"}
	segments     = []string{"bronze", "silver", "gold", "platinum"}
	paymentTypes = []string{"card", "cash", "paypal", "gift card"}
	paymentMix   = []int{55, 25, 15, 5}

	joinStart = time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	joinEnd   = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	saleStart = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	saleEnd   = time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
)

type rawCustomer struct {
	CustomerID      string `csv:"CustomerID"`
	Name            string `csv:"Name"`
	Region          string `csv:"Region"`
	JoinDate        string `csv:"JoinDate"`
	LoyaltyPoints   string `csv:"LoyaltyPoints"`
	CustomerSegment string `csv:"CustomerSegment"`
}

type rawProduct struct {
	ProductID     string `csv:"ProductID"`
	ProductName   string `csv:"ProductName"`
	Category      string `csv:"Category"`
	UnitPrice     string `csv:"UnitPrice"`
	StockQuantity string `csv:"StockQuantity"`
	Supplier      string `csv:"Supplier"`
}

type rawSale struct {
	TransactionID   string `csv:"TransactionID"`
	SaleDate        string `csv:"SaleDate"`
	CustomerID      string `csv:"CustomerID"`
	ProductID       string `csv:"ProductID"`
	StoreID         string `csv:"StoreID"`
	CampaignID      string `csv:"CampaignID"`
	SaleAmount      string `csv:"SaleAmount"`
	DiscountPercent string `csv:"DiscountPercent"`
	PaymentType     string `csv:"PaymentType"`
}

// Generator writes raw customer, product and sale files. A DirtyRatio
// share of rows receive one data-quality defect each.
type Generator struct {
	Customers  int
	Products   int
	Sales      int
	DirtyRatio float64

	// Seed makes output reproducible. Zero picks a time-based seed.
	Seed uint64

	Log zerolog.Logger

	faker *Faker
}

// Summary describes a generator run.
type Summary struct {
	Seed      uint64
	Customers int
	Products  int
	Sales     int
	Defects   map[string]int
	Files     []string
}

// DefectTotal returns the number of injected defects.
func (s *Summary) DefectTotal() int {
	total := 0
	for _, n := range s.Defects {
		total += n
	}
	return total
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (s *Summary) MarshalZerologObject(e *zerolog.Event) {
	e.Uint64("seed", s.Seed).
		Int("customers", s.Customers).
		Int("products", s.Products).
		Int("sales", s.Sales).
		Int("defects", s.DefectTotal())
}

// Write generates the three raw files into dir.
func (g *Generator) Write(dir string) (*Summary, error) {
	if g.Customers < 1 || g.Products < 1 || g.Sales < 1 {
		return nil, fmt.Errorf("customers, products and sales must be at least 1")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	seed := g.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	g.faker = NewFakerWithSeed(seed)
	summary := &Summary{Seed: seed, Defects: make(map[string]int)}

	customers := g.customers(summary)
	products, prices := g.products(summary)
	sales := g.sales(summary, prices)

	summary.Customers = len(customers)
	summary.Products = len(products)
	summary.Sales = len(sales)

	for _, out := range []struct {
		name  string
		write func(string) error
	}{
		{CustomersFile, func(p string) error { return writeCSV(p, customers) }},
		{ProductsFile, func(p string) error { return writeCSV(p, products) }},
		{SalesFile, func(p string) error { return writeCSV(p, sales) }},
	} {
		path := filepath.Join(dir, out.name)
		if err := out.write(path); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		summary.Files = append(summary.Files, path)

		if info, err := os.Stat(path); err == nil {
			g.Log.Debug().
				Str("file", path).
				Str("size", FormatSize(info.Size())).
				Msg("Raw file written")
		}
	}

	g.Log.Info().EmbedObject(summary).Msg("Raw data generated")
	return summary, nil
}

func (g *Generator) dirty() bool {
	return g.faker.Chance(g.DirtyRatio)
}

func customerID(n int) string {
	return fmt.Sprintf("C%04d", n)
}

func productID(n int) string {
	return fmt.Sprintf("P%04d", n)
}

func (g *Generator) customers(s *Summary) []rawCustomer {
	f := g.faker
	rows := make([]rawCustomer, 0, g.Customers)
	for i := 1; i <= g.Customers; i++ {
		row := rawCustomer{
			CustomerID:      customerID(i),
			Name:            f.Name(),
			Region:          Choose(f, regions),
			JoinDate:        f.DateRange(joinStart, joinEnd).Format(time.DateOnly),
			LoyaltyPoints:   strconv.Itoa(f.Int(0, 1000)),
			CustomerSegment: Choose(f, segments),
		}
		if g.dirty() {
			kind := Choose(f, []string{DefectMessyText, DefectBlank, DefectInvalidDate, DefectOutlier, DefectMissingValue, DefectDuplicate})
			s.Defects[kind]++
			switch kind {
			case DefectMessyText:
				row.Name = f.Messy(row.Name)
				row.Region = f.Messy(row.Region)
			case DefectBlank:
				row.Region = ""
			case DefectInvalidDate:
				row.JoinDate = InvalidDate
			case DefectOutlier:
				row.LoyaltyPoints = strconv.Itoa(f.Int(50000, 100000))
			case DefectMissingValue:
				row.LoyaltyPoints = ""
			case DefectDuplicate:
				if len(rows) > 0 {
					dup := rows[f.Int(0, len(rows)-1)]
					dup.Name = f.Messy(dup.Name)
					rows = append(rows, dup)
				}
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func (g *Generator) products(s *Summary) ([]rawProduct, map[string]float64) {
	f := g.faker
	rows := make([]rawProduct, 0, g.Products)
	prices := make(map[string]float64, g.Products)
	for i := 1; i <= g.Products; i++ {
		price := f.Price(5, 500)
		row := rawProduct{
			ProductID:     productID(i),
			ProductName:   f.ProductName(),
			Category:      Choose(f, categories),
			UnitPrice:     FormatMoney(price),
			StockQuantity: strconv.Itoa(f.Int(0, 500)),
			Supplier:      f.Company(),
		}
		if g.dirty() {
			kind := Choose(f, []string{DefectMessyText, DefectMissingValue, DefectOutlier, DefectDuplicate})
			s.Defects[kind]++
			switch kind {
			case DefectMessyText:
				row.Category = f.Messy(row.Category)
			case DefectMissingValue:
				row.UnitPrice = ""
			case DefectOutlier:
				row.UnitPrice = FormatMoney(price * 100)
			case DefectDuplicate:
				if len(rows) > 0 {
					dup := rows[f.Int(0, len(rows)-1)]
					dup.Supplier = f.Company()
					rows = append(rows, dup)
				}
			}
		}
		prices[row.ProductID] = price
		rows = append(rows, row)
	}
	return rows, prices
}

func (g *Generator) sales(s *Summary, prices map[string]float64) []rawSale {
	f := g.faker
	progress := NewProgressReporter(g.Log, SalesFile, int64(g.Sales), 10000)

	rows := make([]rawSale, 0, g.Sales)
	for i := 1; i <= g.Sales; i++ {
		pid := productID(f.Int(1, g.Products))
		qty := ChooseWeighted(f, []int{1, 2, 3, 4, 5}, []int{50, 25, 12, 8, 5})
		discount := ChooseWeighted(f, []int{0, 5, 10, 20}, []int{70, 15, 10, 5})
		amount := math.Round(prices[pid]*float64(qty)*(100-float64(discount))) / 100

		row := rawSale{
			TransactionID:   strconv.Itoa(i),
			SaleDate:        f.DateRange(saleStart, saleEnd).Format(time.DateOnly),
			CustomerID:      customerID(f.Int(1, g.Customers)),
			ProductID:       pid,
			StoreID:         strconv.Itoa(f.Int(1, 20)),
			CampaignID:      strconv.Itoa(f.Int(0, 5)),
			SaleAmount:      FormatMoney(amount),
			DiscountPercent: strconv.Itoa(discount),
			PaymentType:     ChooseWeighted(f, paymentTypes, paymentMix),
		}
		if g.dirty() {
			kind := Choose(f, []string{
				DefectInvalidDate, DefectBlank, DefectOutlier, DefectNegative,
				DefectOrphan, DefectMissingKey, DefectMissingValue, DefectMessyText, DefectDuplicate,
			})
			s.Defects[kind]++
			switch kind {
			case DefectInvalidDate:
				row.SaleDate = InvalidDate
			case DefectBlank:
				row.PaymentType = ""
			case DefectOutlier:
				row.SaleAmount = FormatMoney(amount * 100)
			case DefectNegative:
				row.SaleAmount = FormatMoney(-amount)
			case DefectOrphan:
				row.CustomerID = customerID(g.Customers + f.Int(1, 1000))
			case DefectMissingKey:
				row.ProductID = ""
			case DefectMissingValue:
				row.DiscountPercent = ""
			case DefectMessyText:
				row.PaymentType = f.Messy(row.PaymentType)
			case DefectDuplicate:
				if len(rows) > 0 {
					rows = append(rows, rows[f.Int(0, len(rows)-1)])
				}
			}
		}
		rows = append(rows, row)
		progress.Update(1)
	}
	progress.Done()
	return rows
}

func writeCSV[T any](path string, rows []T) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(file)
	enc := csvutil.NewEncoder(w)
	var zero T
	if err := enc.EncodeHeader(zero); err != nil {
		file.Close()
		return err
	}
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			file.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// ProgressReporter tracks and reports generation progress.
type ProgressReporter struct {
	log              zerolog.Logger
	fileName         string
	totalRows        int64
	currentRow       int64
	progressInterval int64
}

// NewProgressReporter creates a new progress reporter.
func NewProgressReporter(log zerolog.Logger, fileName string, totalRows, interval int64) *ProgressReporter {
	if interval < 1 {
		interval = 1
	}
	return &ProgressReporter{
		log:              log,
		fileName:         fileName,
		totalRows:        totalRows,
		progressInterval: interval,
	}
}

// Update updates the progress and logs if necessary.
func (p *ProgressReporter) Update(rows int64) {
	oldRow := p.currentRow
	p.currentRow += rows

	// Check if we crossed a progress interval
	if p.currentRow/p.progressInterval > oldRow/p.progressInterval {
		pct := float64(p.currentRow) / float64(p.totalRows) * 100
		p.log.Info().
			Str("file", p.fileName).
			Int64("rows", p.currentRow).
			Int64("total", p.totalRows).
			Float64("percent", pct).
			Msg("Generating data")
	}
}

// Done logs completion.
func (p *ProgressReporter) Done() {
	p.log.Debug().
		Str("file", p.fileName).
		Int64("rows", p.currentRow).
		Msg("Rows generated")
}

// FormatSize formats a byte count as a human-readable string.
func FormatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
