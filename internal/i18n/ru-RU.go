package i18n

var ruRU = map[Key]string{
	TitleLogin:      "Вход в систему мониторинга",
	NavMain:         "Главная",
	NavIncidents:    "Инциденты",
	NavRules:        "Правила",
	NavMonitoring:   "Мониторинг",
	NavLogout:       "Выход",
	CardIncidents:   "Активные инциденты",
	CardCritical:    "Критические события",
	CardNetworkLoad: "Загрузка сети",
	TableTopTraffic: "Топ трафика (МБ)",
	TableFlows:      "Активные потоки",

	CellNoData:     "Нет данных",
	CellNoIncident: "Нет инцидентов",
	CellNoRules:    "Нет правил",
	CellNone:       "Нет",
	RuleAuto:       "Авто",
	RuleManual:     "Ручное",
	SevCritical:    "Critical",
	SevWarning:     "Warning",
	SevInfo:        "Info",

	ActionOpen:      "Открыть",
	ActionClose:     "Закрыть",
	ActionEdit:      "Редактировать",
	ActionDelete:    "Удалить",
	ActionBlock:     "Блокировать",
	ActionRefresh:   "Обновить",
	ActionCapture:   "Начать захват",
	ActionCreate:    "Создать правило",
	ConfirmClose:    "Закрыть инцидент #%d?",
	ConfirmDelete:   "Удалить правило #%d?",
	ConfirmBlock:    "Заблокировать IP %s?",
	ConfirmCapture:  "Начать захват трафика? Это может занять некоторое время.",
	DateTimeLayout:  "02.01.2006, 15:04:05",
	MsgLoading:      "Обновление данных...",
	MsgClosed:       "Инцидент закрыт",
	MsgRuleCreated:  "Правило создано",
	MsgCaptureDone:  "Захвачено пакетов: %d, обработано событий: %d, инцидентов: %d",
	MsgNotSupported: "Действие не поддерживается сервером",
	MsgLoggedOut:    "Сеанс завершён",
	MsgLoginNeeded:  "Вход не выполнен. Запустите `trafficmon login` и перезапустите.",
	HintKeys:        "1-4/tab страницы · r обновить · c закрыть · b блокировать · s захват · q выход",
	HintConfirm:     "%s [y/N]",

	ErrBadCredentials:     "Неверные учётные данные",
	ErrConnection:         "Ошибка подключения к серверу",
	ErrMissingCredentials: "Введите имя пользователя и пароль",
	ErrTooManyAttempts:    "Слишком много попыток входа. Повторите позже.",
	ErrLoadFailed:         "Ошибка загрузки данных",
	ErrCloseFailed:        "Ошибка при закрытии инцидента",
	ErrCaptureFailed:      "Ошибка при захвате трафика",
	ErrRuleInvalid:        "Некорректные параметры правила",
	ErrRuleFailed:         "Ошибка при создании правила",
	ErrInvalidIP:          "Некорректный IP-адрес",
	ErrSessionExpired:     "Сеанс истёк, войдите снова",
	ErrNotFound:           "Не найдено",
}
