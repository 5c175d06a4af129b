package click

// Действия протокола Click SHOP-API.
const (
	ActionPrepare  = 0
	ActionComplete = 1
)

// Request — запрос Click, приходит формой (application/x-www-form-urlencoded).
// merchant_trans_id несёт номер нашего заказа.
type Request struct {
	ClickTransID      int64  `form:"click_trans_id"`
	ServiceID         int64  `form:"service_id"`
	ClickPaydocID     int64  `form:"click_paydoc_id"`
	MerchantTransID   string `form:"merchant_trans_id"`
	MerchantPrepareID int64  `form:"merchant_prepare_id"`
	Amount            string `form:"amount"`
	Action            int    `form:"action"`
	Error             int    `form:"error"`
	ErrorNote         string `form:"error_note"`
	SignTime          string `form:"sign_time"`
	SignString        string `form:"sign_string"`
}

// Response — ответ мерчанта. Идентификаторы Click возвращаются дословно,
// иначе Click бракует ответ на своей стороне.
type Response struct {
	ClickTransID      int64  `json:"click_trans_id"`
	MerchantTransID   string `json:"merchant_trans_id"`
	MerchantPrepareID int64  `json:"merchant_prepare_id,omitempty"`
	MerchantConfirmID int64  `json:"merchant_confirm_id,omitempty"`
	Error             int    `json:"error"`
	ErrorNote         string `json:"error_note"`
}
