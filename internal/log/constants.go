package log

const (
	KeyAppName            = "app"
	KeyRequestID          = "requestId"
	KeyTraceID            = "traceId"
	KeySpanID             = "spanId"
	KeyProcess            = "process"
	KeyTag                = "tag"
	KeyConfig             = "config"
	KeyRequest            = "request"
	KeyRequestBody        = "requestBody"
	KeyRequestHeader      = "requestHeader"
	KeyRequestHost        = "host"
	KeyRequestIp          = "requesterIP"
	KeyRequestMethod      = "requestMethod"
	KeyRequestURI         = "requestURI"
	KeyRequestURL         = "requestURL"
	KeyPathValues         = "pathValues"
	KeyEmail              = "email"
	KeyRole               = "role"
	KeyOwnerID            = "ownerId"
	KeyCollection         = "collection"
	KeyBackend            = "backend"
	KeyDocumentSize       = "documentSize"
	KeyCart               = "cart"
	KeyCartItems          = "cartItems"
	KeyCartItemsCount     = "cartItemsCount"
	KeyCartRevision       = "cartRevision"
	KeyProductID          = "productId"
	KeyProduct            = "product"
	KeyProducts           = "products"
	KeyQuantity           = "quantity"
	KeyInvoice            = "invoice"
	KeyInvoiceID          = "invoiceId"
	KeyInvoices           = "invoices"
	KeyInvoiceTotal       = "invoiceTotal"
	KeyCheckoutKey        = "checkoutKey"
	KeyChannel            = "channel"
	KeyEvent              = "event"
	KeyDbURL              = "dbUrl"
	KeyStatusCode         = "statusCode"
)
