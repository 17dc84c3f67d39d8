package provider

// Operation 供应商可选操作的名字，用于能力查询、日志和指标
type Operation string

const (
	OpCreateOrder          Operation = "createOrder"
	OpGetOrderStatus       Operation = "getOrderStatus"
	OpCancelOrder          Operation = "cancelOrder"
	OpListCountries        Operation = "listCountries"
	OpCountryCoverage      Operation = "getCountryCoverage"
	OpSendSMS              Operation = "sendSMS"
	OpSendMMS              Operation = "sendMMS"
	OpSendVerificationCode Operation = "sendVerificationCode"
	OpVerifyCode           Operation = "verifyCode"
	OpCreatePhoneNumber    Operation = "createPhoneNumber"
	OpCreateVPNAccount     Operation = "createVPNAccount"
	OpGetAccountStatus     Operation = "getAccountStatus"
	OpSuspendAccount       Operation = "suspendAccount"
	OpReactivateAccount    Operation = "reactivateAccount"
)

// As 查询供应商是否具备能力 C
func As[C any](p Provider) (C, bool) {
	c, ok := p.(C)
	return c, ok
}

// Supports 供应商是否实现了 op 对应的能力
func Supports(p Provider, op Operation) bool {
	var ok bool
	switch op {
	case OpCreateOrder:
		_, ok = p.(OrderCreator)
	case OpGetOrderStatus:
		_, ok = p.(OrderStatusGetter)
	case OpCancelOrder:
		_, ok = p.(OrderCanceller)
	case OpListCountries:
		_, ok = p.(CountryLister)
	case OpCountryCoverage:
		_, ok = p.(CoverageChecker)
	case OpSendSMS:
		_, ok = p.(SMSSender)
	case OpSendMMS:
		_, ok = p.(MMSSender)
	case OpSendVerificationCode:
		_, ok = p.(VerificationSender)
	case OpVerifyCode:
		_, ok = p.(CodeVerifier)
	case OpCreatePhoneNumber:
		_, ok = p.(NumberCreator)
	case OpCreateVPNAccount:
		_, ok = p.(VPNAccountCreator)
	case OpGetAccountStatus:
		_, ok = p.(AccountStatusGetter)
	case OpSuspendAccount:
		_, ok = p.(AccountSuspender)
	case OpReactivateAccount:
		_, ok = p.(AccountReactivator)
	}
	return ok
}

// Operations 列出供应商支持的全部可选操作
func Operations(p Provider) []Operation {
	all := []Operation{
		OpCreateOrder, OpGetOrderStatus, OpCancelOrder, OpListCountries, OpCountryCoverage,
		OpSendSMS, OpSendMMS, OpSendVerificationCode, OpVerifyCode, OpCreatePhoneNumber,
		OpCreateVPNAccount, OpGetAccountStatus, OpSuspendAccount, OpReactivateAccount,
	}
	res := make([]Operation, 0, len(all))
	for _, op := range all {
		if Supports(p, op) {
			res = append(res, op)
		}
	}
	return res
}
