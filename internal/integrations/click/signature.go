package click

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
)

// Sign считает подпись запроса по схеме Click:
// md5(click_trans_id + service_id + secret_key + merchant_trans_id +
// [merchant_prepare_id при complete] + amount + action + sign_time).
func Sign(req Request, secretKey string) string {
	prepareID := ""
	if req.Action == ActionComplete {
		prepareID = strconv.FormatInt(req.MerchantPrepareID, 10)
	}
	payload := fmt.Sprintf("%d%d%s%s%s%s%d%s",
		req.ClickTransID,
		req.ServiceID,
		secretKey,
		req.MerchantTransID,
		prepareID,
		req.Amount,
		req.Action,
		req.SignTime,
	)
	sum := md5.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// VerifySignature сверяет sign_string запроса с ожидаемой подписью.
func VerifySignature(req Request, secretKey string) bool {
	return req.SignString == Sign(req, secretKey)
}
