package shopify

import "encoding/json"

// MetafieldNamespace is the namespace all discount metafields live under.
const MetafieldNamespace = "a360_discounts"

// Metafield keys written per variant.
const (
	KeyOnetimePercentage      = "onetime_discount_percentage"
	KeyOnetimePrice           = "onetime_discount_price"
	KeySubscriptionPercentage = "subscription_discount_percentage"
	KeySubscriptionPrice      = "subscription_discount_price"
)

// MetafieldTypeNumberDecimal is the Shopify metafield type for all four keys.
const MetafieldTypeNumberDecimal = "number_decimal"

// NeutralValue is written when a discount is removed. Storefront scripts
// treat it as "no discount".
const NeutralValue = "0.0"

// MetafieldDefinition describes one of the discount metafields this
// service maintains on variants.
type MetafieldDefinition struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Type      string `json:"type"`
}

// MetafieldDefinitions lists the full discount metafield set, recorded on
// store_settings when a shop installs.
func MetafieldDefinitions() []MetafieldDefinition {
	keys := []string{
		KeyOnetimePercentage,
		KeyOnetimePrice,
		KeySubscriptionPercentage,
		KeySubscriptionPrice,
	}
	defs := make([]MetafieldDefinition, 0, len(keys))
	for _, key := range keys {
		defs = append(defs, MetafieldDefinition{
			Namespace: MetafieldNamespace,
			Key:       key,
			Type:      MetafieldTypeNumberDecimal,
		})
	}
	return defs
}

// MetafieldWrite is either a create (namespace/key/type addressed) or an
// update (GID addressed). Exactly one shape is populated; the JSON encoding
// matches what ProductVariantsBulkInput expects for each.
type MetafieldWrite struct {
	create *metafieldCreate
	update *metafieldUpdate
}

type metafieldCreate struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
}

type metafieldUpdate struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// NewMetafieldCreate addresses a metafield by key within the discount
// namespace, creating it if the variant does not have one yet.
func NewMetafieldCreate(key, value string) MetafieldWrite {
	return MetafieldWrite{create: &metafieldCreate{
		Namespace: MetafieldNamespace,
		Key:       key,
		Value:     value,
		Type:      MetafieldTypeNumberDecimal,
	}}
}

// NewMetafieldUpdate addresses an existing metafield by its GID.
func NewMetafieldUpdate(id, value string) MetafieldWrite {
	return MetafieldWrite{update: &metafieldUpdate{ID: id, Value: value}}
}

// IsUpdate reports whether the write addresses an existing metafield.
func (w MetafieldWrite) IsUpdate() bool {
	return w.update != nil
}

// Key returns the metafield key for create writes, empty for updates.
func (w MetafieldWrite) Key() string {
	if w.create != nil {
		return w.create.Key
	}
	return ""
}

// Value returns the value being written.
func (w MetafieldWrite) Value() string {
	if w.update != nil {
		return w.update.Value
	}
	if w.create != nil {
		return w.create.Value
	}
	return ""
}

// MarshalJSON implements json.Marshaler.
func (w MetafieldWrite) MarshalJSON() ([]byte, error) {
	if w.update != nil {
		return json.Marshal(w.update)
	}
	return json.Marshal(w.create)
}

// UnmarshalJSON implements json.Unmarshaler. Presence of an id selects the
// update shape.
func (w *MetafieldWrite) UnmarshalJSON(data []byte) error {
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.ID != "" {
		var u metafieldUpdate
		if err := json.Unmarshal(data, &u); err != nil {
			return err
		}
		w.update = &u
		w.create = nil
		return nil
	}
	var c metafieldCreate
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	w.create = &c
	w.update = nil
	return nil
}

// VariantWrite is one variant's metafield writes within a bulk update.
type VariantWrite struct {
	VariantGID string           `json:"id"`
	Metafields []MetafieldWrite `json:"metafields"`
}

// ProductWrite groups variant writes under their parent product, the unit of
// one productVariantsBulkUpdate call.
type ProductWrite struct {
	ProductGID string         `json:"productId"`
	Variants   []VariantWrite `json:"variants"`
}

// HarvestedMetafield is one metafield GID read back from Shopify.
type HarvestedMetafield struct {
	MetafieldGID string
	Key          string
	Value        string
}

// VariantResult carries the per-variant state Shopify returned after a bulk
// update, including any metafields it reported.
type VariantResult struct {
	VariantGID string
	Metafields []HarvestedMetafield
}

// BulkUpdateResult is the mapped response of one bulk update call.
type BulkUpdateResult struct {
	ProductGID string
	Variants   []VariantResult
}

// UserError is a business-rule rejection reported inside a 200 response.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}
