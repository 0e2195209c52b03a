package fieldgraph

import "github.com/onceinteractive/cascade/pkg/types"

// Well-known field ids of the built-in return form.
const (
	FieldState          types.FieldID = "state"
	FieldStore          types.FieldID = "store"
	FieldBrand          types.FieldID = "brand"
	FieldManufacturedBy types.FieldID = "manufacturedBy"
	FieldForm           types.FieldID = "form"
	FieldProductType    types.FieldID = "productType"
	FieldReturnReason   types.FieldID = "returnReason"
	FieldProductDetails types.FieldID = "productDetails"
)

// Lookup operations of the built-in return form.
const (
	OpStates         = "get_states"
	OpStores         = "get_stores"
	OpBrands         = "get_brands"
	OpManufacturedBy = "get_manufactured_by"
	OpForms          = "get_forms"
	OpProductTypes   = "get_product_types"
	OpReturnReasons  = "get_return_reasons"
	OpProductDetails = "get_product_details"
)

// Default builds the seven-field return-form cascade:
// State → {Store, Brand, ManufacturedBy}; Brand → Form;
// Form → {ProductType, ReturnReason}; ProductType → ProductDetails.
func Default() *Graph {
	g := New(FieldState)

	specs := []Spec{
		{ID: FieldStore, Operation: OpStores, Parent: FieldState,
			Filters: []Filter{{Key: "state", Source: FieldState}}},
		{ID: FieldBrand, Operation: OpBrands, Parent: FieldState,
			Filters: []Filter{{Key: "state", Source: FieldState}}},
		{ID: FieldManufacturedBy, Operation: OpManufacturedBy, Parent: FieldState,
			Filters: []Filter{{Key: "state", Source: FieldState}}},
		{ID: FieldForm, Operation: OpForms, Parent: FieldBrand,
			Filters: []Filter{{Key: "brand", Source: FieldBrand}, {Key: "state", Source: FieldState}}},
		{ID: FieldProductType, Operation: OpProductTypes, Parent: FieldForm,
			Filters: []Filter{{Key: "brand", Source: FieldBrand}, {Key: "state", Source: FieldState}, {Key: "form", Source: FieldForm}}},
		{ID: FieldReturnReason, Operation: OpReturnReasons, Parent: FieldForm,
			Filters: []Filter{{Key: "form", Source: FieldForm}}},
		{ID: FieldProductDetails, Operation: OpProductDetails, Parent: FieldProductType,
			Filters: []Filter{{Key: "brand", Source: FieldBrand}, {Key: "state", Source: FieldState}, {Key: "form", Source: FieldForm}, {Key: "productType", Source: FieldProductType}}},
	}

	for _, s := range specs {
		if err := g.AddField(s); err != nil {
			// The built-in specs are registered top-down and reference only
			// known fields, so this cannot fail.
			panic(err)
		}
	}
	return g
}
