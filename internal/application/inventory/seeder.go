package inventory

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/medtrack/backend/internal/domain/asset"
	"github.com/medtrack/backend/internal/domain/hospital"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Seeder generates sample assets for an empty repository
type Seeder interface {
	Generate(cfg *hospital.Config, n int) []*asset.HospitalAsset
}

// fallbackCatalog is used when a hospital lists no equipment models
var fallbackCatalog = []hospital.CatalogItem{
	{Name: "Infusion Pump", Manufacturer: "Baxter", Category: "Infusion", MinPrice: 1500, MaxPrice: 4000},
	{Name: "Patient Monitor", Manufacturer: "Philips", Category: "Monitoring", MinPrice: 3000, MaxPrice: 12000},
	{Name: "X-Ray Machine", Manufacturer: "GE Healthcare", Category: "Imaging", MinPrice: 40000, MaxPrice: 150000},
	{Name: "Surgical Gloves", Manufacturer: "Ansell", Category: "Supplies", MinPrice: 5, MaxPrice: 20},
}

var sampleConditions = []string{
	string(asset.ConditionNew),
	string(asset.ConditionGood),
	string(asset.ConditionFair),
	string(asset.ConditionMaintenanceRequired),
}

var sampleLevels = []string{
	string(asset.CriticalLevelCritical),
	string(asset.CriticalLevelEssential),
	string(asset.CriticalLevelRoutine),
}

var titleCaser = cases.Title(language.English)

// FakerSeeder builds sample assets from a hospital's equipment catalog
// with gofakeit. Every generated asset passes validation for that hospital.
type FakerSeeder struct {
	mu    sync.Mutex
	faker *gofakeit.Faker
	now   func() time.Time
}

// NewFakerSeeder creates a seeder. Seed 0 picks a random seed.
func NewFakerSeeder(seed uint64) *FakerSeeder {
	return &FakerSeeder{faker: gofakeit.New(seed), now: time.Now}
}

// Generate returns n sample assets for cfg
func (g *FakerSeeder) Generate(cfg *hospital.Config, n int) []*asset.HospitalAsset {
	g.mu.Lock()
	defer g.mu.Unlock()

	catalog := fallbackCatalog
	if cfg != nil && len(cfg.Catalog) > 0 {
		catalog = cfg.Catalog
	}

	out := make([]*asset.HospitalAsset, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, g.sample(cfg, catalog[g.faker.Number(0, len(catalog)-1)]))
	}
	return out
}

func (g *FakerSeeder) sample(cfg *hospital.Config, item hospital.CatalogItem) *asset.HospitalAsset {
	f := g.faker
	now := g.now()

	quantity := decimal.NewFromInt(int64(f.Number(0, 50)))
	reorderPoint := f.Number(5, 20)
	price := decimal.NewFromFloat(f.Price(item.MinPrice, item.MaxPrice)).Round(2)
	lastMaintenance := f.DateRange(now.AddDate(0, -6, 0), now)
	lastCalibration := f.DateRange(now.AddDate(0, 0, -60), now)
	warranty := f.DateRange(now.AddDate(-1, 0, 0), now.AddDate(3, 0, 0))

	attrs := asset.HospitalAttrs{
		Attrs: asset.Attrs{
			Name:            item.Name,
			Manufacturer:    item.Manufacturer,
			Category:        item.Category,
			Quantity:        &quantity,
			SerialNumber:    g.serialNumber(),
			CriticalLevel:   asset.CriticalLevel(f.RandomString(sampleLevels)),
			ReorderPoint:    &reorderPoint,
			LastMaintenance: &lastMaintenance,
		},
		CustomFields:    make(map[string]any),
		Condition:       asset.Condition(f.RandomString(sampleConditions)),
		PurchasePrice:   &price,
		WarrantyExpiry:  &warranty,
		LastCalibration: &lastCalibration,
	}
	if cfg != nil {
		if len(cfg.Locations) > 0 {
			attrs.Location = f.RandomString(cfg.Locations)
		}
		if len(cfg.Departments) > 0 {
			attrs.CustomFields["department"] = f.RandomString(cfg.Departments)
		}
	}

	a := asset.NewHospitalAsset(cfg, attrs)
	g.fillRequired(a, cfg)
	return a
}

// fillRequired gives every still-empty required field a value of its type
func (g *FakerSeeder) fillRequired(a *asset.HospitalAsset, cfg *hospital.Config) {
	if cfg == nil {
		return
	}
	f := g.faker
	for _, field := range cfg.RequiredFields() {
		if v, ok := a.Get(field.Key); ok && !isBlank(v) {
			continue
		}
		switch field.Type {
		case hospital.FieldTypeNumber, hospital.FieldTypePercentage:
			a.Set(field.Key, f.Number(0, 100))
		case hospital.FieldTypeCurrency:
			a.Set(field.Key, decimal.NewFromFloat(f.Price(1, 1000)).Round(2))
		case hospital.FieldTypeDate:
			a.Set(field.Key, f.DateRange(g.now().AddDate(-1, 0, 0), g.now()))
		case hospital.FieldTypeBoolean:
			a.Set(field.Key, true)
		default:
			a.Set(field.Key, titleCaser.String(f.Word()))
		}
	}
	a.MarkClean()
}

func (g *FakerSeeder) serialNumber() string {
	return fmt.Sprintf("%s%s-%06d",
		strings.ToUpper(g.faker.Letter()), strings.ToUpper(g.faker.Letter()), g.faker.Number(0, 999999))
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}
