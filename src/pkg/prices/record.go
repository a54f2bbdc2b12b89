// Package prices holds the fuel price records fetched for one report run, the date
// filters applied to them and the aggregation that feeds the HTML report.
package prices

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

// Unspecified is the bucket for records whose grouping field is missing or blank.
const Unspecified = "unspecified"

/*
Record is one priced-item observation as published by the upstream API.

Every attribute is optional. Records are never modified after decoding.
*/
type Record struct {
	DateRaw   string          `json:"date_raw,omitempty"`
	Date      time.Time       `json:"date"`
	DateValid bool            `json:"date_valid"`
	DateZoned bool            `json:"date_zoned"` // the raw value carried an explicit UTC offset
	Product   string          `json:"product,omitempty"`
	Province  string          `json:"province,omitempty"`
	Locality  string          `json:"locality,omitempty"`
	CompanyID string          `json:"company_id,omitempty"`
	Company   string          `json:"company,omitempty"`
	Brand     string          `json:"brand,omitempty"`
	Price     decimal.Decimal `json:"price"`
	HasPrice  bool            `json:"has_price"`
}

// EntityID identifies the reporting station: company id, else company name.
func (r Record) EntityID() string {
	if r.CompanyID != "" {
		return r.CompanyID
	}
	return r.Company
}

// Envelope names the JSON shape the records were found in.
type Envelope string

const (
	EnvelopeArray         Envelope = "array"
	EnvelopeResultRecords Envelope = "result.records"
	EnvelopeResult        Envelope = "result"
	EnvelopeRecords       Envelope = "records"
	EnvelopeData          Envelope = "data"
	EnvelopeNone          Envelope = "none"
)

// Dataset is the ordered collection of records for one workflow run.
type Dataset struct {
	Envelope Envelope `json:"envelope"`
	Records  []Record `json:"records"`
}

// Len is the number of records, safe on the zero value.
func (d Dataset) Len() int {
	return len(d.Records)
}

/*
FieldMap lists, for every logical attribute, the JSON keys tried in priority order.

For Date the first candidate whose value parses wins. For every other attribute
the first non-blank candidate wins.
*/
type FieldMap struct {
	Date      []string `json:"date,omitempty"`
	Product   []string `json:"product,omitempty"`
	Province  []string `json:"province,omitempty"`
	Locality  []string `json:"locality,omitempty"`
	CompanyID []string `json:"company_id,omitempty"`
	Company   []string `json:"company,omitempty"`
	Brand     []string `json:"brand,omitempty"`
	Price     []string `json:"price,omitempty"`
}

// DefaultFieldMap matches the Argentine energy secretariat fuel price dataset.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		Date:      []string{"fecha_vigencia", "fecha", "indice_tiempo", "date", "timestamp"},
		Product:   []string{"producto", "product"},
		Province:  []string{"provincia", "province"},
		Locality:  []string{"localidad", "locality"},
		CompanyID: []string{"idempresa", "empresa_id", "idestacion", "station_id"},
		Company:   []string{"empresa", "company", "station"},
		Brand:     []string{"empresabandera", "bandera", "brand"},
		Price:     []string{"precio", "price"},
	}
}

// WithDefaults fills every empty candidate list from DefaultFieldMap.
func (f FieldMap) WithDefaults() FieldMap {
	def := DefaultFieldMap()
	fill := func(dst *[]string, src []string) {
		if len(*dst) == 0 {
			*dst = src
		}
	}
	fill(&f.Date, def.Date)
	fill(&f.Product, def.Product)
	fill(&f.Province, def.Province)
	fill(&f.Locality, def.Locality)
	fill(&f.CompanyID, def.CompanyID)
	fill(&f.Company, def.Company)
	fill(&f.Brand, def.Brand)
	fill(&f.Price, def.Price)
	return f
}

/*
DecodeDataset turns an upstream response body into a Dataset.

Recognized shapes, in order:
  - a top-level array of objects
  - {"result": {"records": [...]}} (CKAN datastore)
  - {"result": [...]}
  - {"records": [...]}
  - {"data": [...]}

Anything else (including a body that is not JSON) yields an empty Dataset and a
warning. Array items that are not objects are skipped.
*/
func DecodeDataset(body []byte, fields FieldMap) (dataset Dataset) {
	fields = fields.WithDefaults()
	dataset = Dataset{Envelope: EnvelopeNone, Records: []Record{}}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var root any
	decodeErr := decoder.Decode(&root)
	if decodeErr != nil {
		tl.Log(tl.Warning, palette.Yellow, "Response body is %s (%s), treating dataset as %s", "not JSON", decodeErr, "empty")
		return dataset
	}

	items, envelope := findRecordArray(root)
	if envelope == EnvelopeNone {
		tl.Log(tl.Warning, palette.Yellow, "Expected record array %s in response, treating dataset as %s", "not found", "empty")
		return dataset
	}

	dataset.Envelope = envelope
	skipped := 0
	for _, item := range items {
		object, ok := item.(map[string]any)
		if !ok {
			skipped++
			continue
		}
		dataset.Records = append(dataset.Records, decodeRecord(object, fields))
	}
	if skipped > 0 {
		tl.Log(tl.Warning1, palette.YellowDim, "Skipped %s non-object items in '%s' envelope", skipped, envelope)
	}

	tl.Log(tl.Info1, palette.Cyan, "Decoded %s records from '%s' envelope", len(dataset.Records), envelope)
	return dataset
}

func findRecordArray(root any) (items []any, envelope Envelope) {
	switch value := root.(type) {
	case []any:
		return value, EnvelopeArray
	case map[string]any:
		if result, ok := value["result"].(map[string]any); ok {
			if records, ok := result["records"].([]any); ok {
				return records, EnvelopeResultRecords
			}
		}
		if result, ok := value["result"].([]any); ok {
			return result, EnvelopeResult
		}
		if records, ok := value["records"].([]any); ok {
			return records, EnvelopeRecords
		}
		if data, ok := value["data"].([]any); ok {
			return data, EnvelopeData
		}
	}
	return nil, EnvelopeNone
}

func decodeRecord(object map[string]any, fields FieldMap) (record Record) {
	record.Product = firstText(object, fields.Product)
	record.Province = firstText(object, fields.Province)
	record.Locality = firstText(object, fields.Locality)
	record.CompanyID = firstText(object, fields.CompanyID)
	record.Company = firstText(object, fields.Company)
	record.Brand = firstText(object, fields.Brand)

	for _, key := range fields.Date {
		raw := textValue(object[key])
		if raw == "" {
			continue
		}
		if record.DateRaw == "" {
			record.DateRaw = raw
		}
		parsed, zoned, ok := ParseRecordDate(raw)
		if ok {
			record.DateRaw = raw
			record.Date = parsed
			record.DateZoned = zoned
			record.DateValid = true
			break
		}
	}

	priceRaw := firstText(object, fields.Price)
	if priceRaw != "" {
		price, ok := parsePrice(priceRaw)
		record.Price = price
		record.HasPrice = ok
	}

	return record
}

func firstText(object map[string]any, candidates []string) string {
	for _, key := range candidates {
		text := textValue(object[key])
		if text != "" {
			return text
		}
	}
	return ""
}

// textValue stringifies scalar JSON values; objects, arrays and null are blank.
func textValue(value any) string {
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return typed.String()
	case bool:
		return fmt.Sprintf("%t", typed)
	default:
		return ""
	}
}

/*
parsePrice accepts "1234.5", "1234,5" and "1.234,50".

Unparseable values return (0, false).
*/
func parsePrice(raw string) (price decimal.Decimal, ok bool) {
	normalized := strings.TrimSpace(raw)
	if strings.Contains(normalized, ",") {
		normalized = strings.ReplaceAll(normalized, ".", "")
		normalized = strings.ReplaceAll(normalized, ",", ".")
	}
	price, parseErr := decimal.NewFromString(normalized)
	if parseErr != nil {
		return decimal.Zero, false
	}
	return price, true
}
