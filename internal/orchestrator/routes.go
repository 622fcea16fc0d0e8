package orchestrator

import (
	"toronet-wallet/internal/models"
)

// route names the ledger operations behind one operation kind.
type route struct {
	FeeOp    string
	ResultOp string
	SubmitOp string
}

var routes = map[models.OperationKind]route{
	models.Transfer: {FeeOp: "calculatetxfee", SubmitOp: "transfer"},
	models.Buy:      {FeeOp: "calculatebuyfee", ResultOp: "calculatebuyresult", SubmitOp: "buytoro"},
	models.Sell:     {FeeOp: "calculatesellfee", ResultOp: "calculatesellresult", SubmitOp: "selltoro"},
	models.Withdraw: {FeeOp: "calculateexportfee", SubmitOp: "withdrawcrypto"},
}

var mintOps = map[models.Category]string{
	models.Token:    "mint",
	models.Currency: "importcurrency",
	models.Coin:     "importcoin",
	models.Crypto:   "importcrypto",
}

// quoteParams are the operands of both fee and result quotes.
func quoteParams(address, amount string) []models.Param {
	return []models.Param{
		{Name: "client", Value: address},
		{Name: "val", Value: amount},
	}
}

func submitParams(kind models.OperationKind, address, secret, amount, destination string) []models.Param {
	params := []models.Param{
		{Name: "client", Value: address},
		{Name: "clientpwd", Value: secret},
	}
	switch kind {
	case models.Transfer:
		params = append(params,
			models.Param{Name: "to", Value: destination},
			models.Param{Name: "val", Value: amount},
		)
	case models.Withdraw:
		params = append(params,
			models.Param{Name: "val", Value: amount},
			models.Param{Name: "crypto", Value: destination},
		)
	default:
		params = append(params, models.Param{Name: "val", Value: amount})
	}
	return params
}

func mintParams(admin, adminPassword, address, amount string) []models.Param {
	return []models.Param{
		{Name: "admin", Value: admin},
		{Name: "adminpwd", Value: adminPassword},
		{Name: "addr", Value: address},
		{Name: "val", Value: amount},
	}
}
