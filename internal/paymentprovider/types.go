package paymentprovider

// CreateSessionParams — параметры hosted checkout сессии.
type CreateSessionParams struct {
	CustomerID    string            // ID существующего клиента, пусто — создать по email
	CustomerEmail string            // Email клиента, используется при отсутствии CustomerID
	ProductName   string            // Название продукта на странице оплаты
	Amount        int64             // Цена в минорных единицах
	Currency      string            // Валюта
	SuccessURL    string            // Адрес возврата после успешной оплаты
	CancelURL     string            // Адрес возврата при отмене
	Metadata      map[string]string // Метаданные: user_uid, service_type и пр.
}

// Session — результат создания или чтения checkout сессии.
type Session struct {
	ID       string            // ID сессии у провайдера
	URL      string            // Адрес hosted страницы оплаты
	Paid     bool              // Оплата подтверждена провайдером
	Metadata map[string]string // Метаданные, переданные при создании
}
