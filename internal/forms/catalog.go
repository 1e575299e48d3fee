package forms

import (
	"sort"

	"globaltrust/internal/codec"
	"globaltrust/internal/services"
)

// Param is one input of a form. Dotted names nest into sub-records.
// FromPrincipal params are filled with the signed-in principal and Fixed
// params always send their Default; neither can be supplied by the caller.
type Param struct {
	Name          string
	Kind          codec.Kind
	Elem          codec.Kind
	Default       any
	FromPrincipal bool
	Fixed         bool
}

// Form is one write operation of a service. Positional forms send each
// param as an argument, with dotted params sharing a prefix sent as one
// record argument; record forms send a single record argument.
type Form struct {
	Name    string
	Service services.Name
	Method  string
	Record  bool
	Params  []Param
}

func opt(name string, elem codec.Kind) Param {
	return Param{Name: name, Kind: codec.KindOptional, Elem: elem}
}

func req(name string, kind codec.Kind) Param {
	return Param{Name: name, Kind: kind}
}

func withDefault(name string, kind codec.Kind, def any) Param {
	return Param{Name: name, Kind: kind, Default: def}
}

func fixed(name string, kind codec.Kind, value any) Param {
	return Param{Name: name, Kind: kind, Default: value, Fixed: true}
}

var catalog = map[string]Form{
	"register_identity": {
		Name:    "register_identity",
		Service: services.Identity,
		Method:  "registerIdentity",
	},
	"add_credential": {
		Name:    "add_credential",
		Service: services.Identity,
		Method:  "addVerifiableCredential",
		Params: []Param{
			req("credential_type", codec.KindText),
			req("issuer", codec.KindText),
			req("issued_at", codec.KindDate),
			opt("expiration_date", codec.KindDate),
			req("credential_hash", codec.KindText),
		},
	},
	"mint_property": {
		Name:    "mint_property",
		Service: services.Assets,
		Method:  "mintProperty",
		Params: []Param{
			req("property_id", codec.KindNat),
			withDefault("fractional_shares", codec.KindNat, "100"),
			opt("metadata", codec.KindText),
		},
	},
	"mint_rwa_nft": {
		Name:    "mint_rwa_nft",
		Service: services.Assets,
		Method:  "mintRwaNft",
		Params: []Param{
			{Name: "owner", Kind: codec.KindText, FromPrincipal: true},
			req("metadata.ipfs_cid", codec.KindText),
			req("metadata.rwa_type", codec.KindText),
			req("metadata.submission_id", codec.KindText),
			req("metadata.attestation_ids", codec.KindTextList),
			req("metadata.verification_hash", codec.KindText),
			fixed("metadata.lien_active", codec.KindBool, false),
			fixed("metadata.collateralized", codec.KindBool, false),
			fixed("metadata.frozen", codec.KindBool, false),
		},
	},
	"start_sale": {
		Name:    "start_sale",
		Service: services.Assets,
		Method:  "startSale",
		Params: []Param{
			req("token_index", codec.KindNat),
			req("shares", codec.KindNat),
			req("price_per_share", codec.KindMoney),
			req("start_time", codec.KindDate),
			req("end_time", codec.KindDate),
			req("min_per_user", codec.KindNat),
			req("max_per_user", codec.KindNat),
			opt("whitelist", codec.KindText),
		},
	},
	"submit_offer": {
		Name:    "submit_offer",
		Service: services.Marketplace,
		Method:  "submitOffer",
		Params: []Param{
			req("listing_id", codec.KindNat),
			req("amount", codec.KindMoney),
		},
	},
	"place_bid": {
		Name:    "place_bid",
		Service: services.Marketplace,
		Method:  "placeBid",
		Params: []Param{
			req("listing_id", codec.KindNat),
			req("amount", codec.KindMoney),
		},
	},
	"submit_loan_application": {
		Name:    "submit_loan_application",
		Service: services.Lending,
		Method:  "submitLoanApplication",
		Record:  true,
		Params: []Param{
			{Name: "borrower", Kind: codec.KindText, FromPrincipal: true},
			req("requested_amount", codec.KindMoney),
			req("loan_purpose", codec.KindText),
			req("duration", codec.KindDuration),
			req("employment_info.employer_name", codec.KindText),
			req("employment_info.job_title", codec.KindText),
			req("employment_info.employment_duration", codec.KindNat),
			req("employment_info.monthly_income", codec.KindMoney),
			withDefault("employment_info.employment_type", codec.KindText, "full-time"),
			withDefault("employment_info.verified", codec.KindBool, false),
			req("financial_info.monthly_income", codec.KindMoney),
			req("financial_info.monthly_expenses", codec.KindMoney),
			req("financial_info.existing_debts", codec.KindMoney),
			req("financial_info.assets_value", codec.KindMoney),
			withDefault("financial_info.bank_statements_provided", codec.KindBool, false),
			withDefault("financial_info.tax_returns_provided", codec.KindBool, false),
			req("property_info.submission_id", codec.KindText),
			req("property_info.estimated_value", codec.KindMoney),
			withDefault("property_info.property_type", codec.KindText, "residential"),
			req("property_info.location", codec.KindText),
			opt("property_info.appraisal_date", codec.KindDate),
			opt("property_info.insurance_info", codec.KindText),
		},
	},
	"make_payment": {
		Name:    "make_payment",
		Service: services.Lending,
		Method:  "makePayment",
		Params: []Param{
			req("loan_id", codec.KindNat),
			req("amount", codec.KindMoney),
			withDefault("payment_type", codec.KindVariant, "regular"),
		},
	},
	"fund_loan": {
		Name:    "fund_loan",
		Service: services.Lending,
		Method:  "fundLoan",
		Params: []Param{
			req("loan_id", codec.KindNat),
		},
	},
	"submit_document": {
		Name:    "submit_document",
		Service: services.Verification,
		Method:  "submitPropertyDocument",
		Params: []Param{
			req("title", codec.KindText),
			req("document_text", codec.KindText),
			opt("ipfs_hash", codec.KindText),
			opt("document_type", codec.KindText),
			opt("file_size", codec.KindNat),
			opt("notes", codec.KindText),
		},
	},
}

// Lookup returns the form registered under name.
func Lookup(name string) (Form, bool) {
	f, ok := catalog[name]
	return f, ok
}

// Catalog lists every form ordered by name.
func Catalog() []Form {
	out := make([]Form, 0, len(catalog))
	for _, f := range catalog {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
