package service

import (
	"fmt"
	"meal-storefront/internal/apperr"
	"net/url"
	"strconv"
	"strings"
)

// Checkout metadata is the only channel carrying the cart to the webhook, and
// the gateway caps each value at 500 characters.
//
// Version 2 (written):
//
//	format_version = "2"
//	customer_phone = <phone>
//	order_id       = <booking order id, optional>
//	items_0..N     = records joined by ",", each a query-encoded
//	                 "cents=<n>&date=<d>&meal=<id>&qty=<n>&time=<t>"
//
// Legacy (read only):
//
//	customer_phone = <phone>
//	meal_details   = records joined by ",", each "meal_id:quantity:pickup_time:pickup_date"
//	                 where pickup_time may itself contain ":".
const (
	metadataFormatKey   = "format_version"
	metadataFormatV2    = "2"
	metadataPhoneKey    = "customer_phone"
	metadataOrderKey    = "order_id"
	metadataItemsPrefix = "items_"
	legacyItemsKey      = "meal_details"

	maxMetadataValueLen = 500
	maxItemChunks       = 40
)

type FulfillmentLine struct {
	MealID     string
	Quantity   int
	UnitAmount int64 // minor units; 0 when unknown (legacy sessions)
	PickupTime string
	PickupDate string
}

type FulfillmentMetadata struct {
	Version       int
	CustomerPhone string
	OrderID       string
	Lines         []FulfillmentLine
}

// ExpectedTotal sums the line amounts. ok is false when any line has no price.
func (m *FulfillmentMetadata) ExpectedTotal() (total int64, ok bool) {
	for _, l := range m.Lines {
		if l.UnitAmount <= 0 {
			return 0, false
		}
		total += l.UnitAmount * int64(l.Quantity)
	}
	return total, true
}

func EncodeMetadata(m *FulfillmentMetadata) (map[string]string, error) {
	out := map[string]string{
		metadataFormatKey: metadataFormatV2,
		metadataPhoneKey:  m.CustomerPhone,
	}
	if m.OrderID != "" {
		out[metadataOrderKey] = m.OrderID
	}

	var chunks []string
	var cur strings.Builder
	for _, l := range m.Lines {
		rec := url.Values{
			"meal":  {l.MealID},
			"qty":   {strconv.Itoa(l.Quantity)},
			"cents": {strconv.FormatInt(l.UnitAmount, 10)},
			"time":  {l.PickupTime},
			"date":  {l.PickupDate},
		}.Encode()
		if len(rec) > maxMetadataValueLen {
			return nil, apperr.Validation(apperr.CodeMetadataTooLarge, fmt.Sprintf("cart line for meal %s is too large", l.MealID))
		}

		if cur.Len() > 0 && cur.Len()+1+len(rec) > maxMetadataValueLen {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(',')
		}
		cur.WriteString(rec)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}

	if len(chunks) > maxItemChunks {
		return nil, apperr.Validation(apperr.CodeMetadataTooLarge, "cart has too many lines")
	}
	for i, c := range chunks {
		out[metadataItemsPrefix+strconv.Itoa(i)] = c
	}

	return out, nil
}

func DecodeMetadata(md map[string]string) (*FulfillmentMetadata, error) {
	switch md[metadataFormatKey] {
	case metadataFormatV2:
		return decodeV2(md)
	case "":
		if _, ok := md[legacyItemsKey]; ok {
			return decodeLegacy(md)
		}
		return nil, invalidMetadata("no line items in session metadata")
	default:
		return nil, invalidMetadata(fmt.Sprintf("unknown metadata format %q", md[metadataFormatKey]))
	}
}

func decodeV2(md map[string]string) (*FulfillmentMetadata, error) {
	m := &FulfillmentMetadata{
		Version:       2,
		CustomerPhone: md[metadataPhoneKey],
		OrderID:       md[metadataOrderKey],
	}

	for i := 0; ; i++ {
		chunk, ok := md[metadataItemsPrefix+strconv.Itoa(i)]
		if !ok {
			break
		}
		for _, rec := range strings.Split(chunk, ",") {
			line, err := parseV2Record(rec)
			if err != nil {
				return nil, err
			}
			m.Lines = append(m.Lines, line)
		}
	}

	if len(m.Lines) == 0 {
		return nil, invalidMetadata("no line items in session metadata")
	}
	return m, nil
}

func parseV2Record(rec string) (FulfillmentLine, error) {
	v, err := url.ParseQuery(rec)
	if err != nil {
		return FulfillmentLine{}, invalidMetadata(fmt.Sprintf("malformed line %q", rec))
	}

	line := FulfillmentLine{
		MealID:     v.Get("meal"),
		PickupTime: v.Get("time"),
		PickupDate: v.Get("date"),
	}
	if line.MealID == "" {
		return FulfillmentLine{}, invalidMetadata(fmt.Sprintf("line %q has no meal id", rec))
	}
	if line.Quantity, err = parseQuantity(v.Get("qty")); err != nil {
		return FulfillmentLine{}, err
	}
	if c := v.Get("cents"); c != "" {
		line.UnitAmount, err = strconv.ParseInt(c, 10, 64)
		if err != nil || line.UnitAmount < 0 {
			return FulfillmentLine{}, invalidMetadata(fmt.Sprintf("line %q has a bad unit amount", rec))
		}
	}

	return line, nil
}

func decodeLegacy(md map[string]string) (*FulfillmentMetadata, error) {
	m := &FulfillmentMetadata{
		Version:       1,
		CustomerPhone: md[metadataPhoneKey],
	}

	for _, rec := range strings.Split(md[legacyItemsKey], ",") {
		rec = strings.TrimSpace(rec)
		if rec == "" {
			continue
		}

		fields := strings.Split(rec, ":")
		if len(fields) < 4 || fields[0] == "" {
			return nil, invalidMetadata(fmt.Sprintf("malformed legacy line %q", rec))
		}

		qty, err := parseQuantity(fields[1])
		if err != nil {
			return nil, err
		}
		m.Lines = append(m.Lines, FulfillmentLine{
			MealID:     fields[0],
			Quantity:   qty,
			PickupTime: strings.Join(fields[2:len(fields)-1], ":"),
			PickupDate: fields[len(fields)-1],
		})
	}

	if len(m.Lines) == 0 {
		return nil, invalidMetadata("no line items in session metadata")
	}
	return m, nil
}

func parseQuantity(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, invalidMetadata(fmt.Sprintf("bad quantity %q", s))
	}
	return n, nil
}

func invalidMetadata(msg string) *apperr.Error {
	return apperr.Validation(apperr.CodeInvalidMetadata, msg)
}
