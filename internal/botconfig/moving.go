package botconfig

import (
	"github.com/relomove/leadbot/internal/extract"
	"github.com/relomove/leadbot/internal/models"
)

// Choice group names used by the moving bot.
const (
	ChoiceVolume      = "volume"
	ChoicePickupCount = "pickup_count"
	ChoiceDate        = "date"
	ChoiceTimeSlot    = "time_slot"
	ChoicePhoto       = "photo"
	ChoiceExtras      = "extras"
	ChoiceConfirm     = "confirm"
)

// Values produced by the date and extras choice groups.
const (
	DateTomorrow   = "tomorrow"
	DateDayAfter   = "day_after"
	DateSpecific   = "specific"
	TimeSlotExact  = "exact"
	ExtrasNone     = "none"
	PhotoYes       = "yes"
	PhotoNo        = "no"
	ConfirmKeep    = "keep"
	ConfirmReenter = "reenter"
)

// MovingBotConfig builds the moving/relocation lead-intake script.
func MovingBotConfig() *BotConfig {
	return &BotConfig{
		Type:            models.BotTypeMoving,
		InitialStep:     models.StepWelcome,
		FinalStep:       models.StepDone,
		DefaultLanguage: models.LanguageRussian,
		Steps: []models.Step{
			models.StepWelcome, models.StepCargo, models.StepVolume,
			models.StepPickupCount, models.StepAddrFrom, models.StepFloorFrom,
			models.StepAddrFrom2, models.StepFloorFrom2, models.StepAddrFrom3,
			models.StepFloorFrom3, models.StepAddrTo, models.StepFloorTo,
			models.StepConfirmAddresses, models.StepDate, models.StepSpecificDate,
			models.StepTimeSlot, models.StepExactTime, models.StepPhotoMenu,
			models.StepPhotoWait, models.StepExtras, models.StepEstimate,
			models.StepDone, models.StepLegacyTime,
		},
		Choices: map[string]map[string]string{
			ChoiceVolume: {
				"1": string(models.VolumeSmall),
				"2": string(models.VolumeMedium),
				"3": string(models.VolumeLarge),
				"4": string(models.VolumeXL),
			},
			ChoicePickupCount: {"1": "1", "2": "2", "3": "3"},
			ChoiceDate: {
				"1": DateTomorrow,
				"2": DateDayAfter,
				"3": DateSpecific,
			},
			ChoiceTimeSlot: {
				"1": "morning",
				"2": "afternoon",
				"3": "evening",
				"4": TimeSlotExact,
			},
			ChoicePhoto: {"1": PhotoYes, "2": PhotoNo},
			ChoiceExtras: {
				"1": "packing_service",
				"2": "furniture_disassembly",
				"3": "temporary_storage",
				"4": ExtrasNone,
			},
			ChoiceConfirm: {"1": ConfirmKeep, "2": ConfirmReenter},
		},
		Intents: map[models.Language]extract.IntentPatterns{
			models.LanguageRussian: {
				Reset:   []string{"/start", "заново", "сначала", "сброс", "начать заново"},
				Confirm: []string{"да", "ок", "давай", "конечно", "подтверждаю"},
				Decline: []string{"нет", "не надо", "отмена"},
			},
			models.LanguageEnglish: {
				Reset:   []string{"/start", "reset", "restart", "start over"},
				Confirm: []string{"yes", "ok", "sure", "confirm", "yep"},
				Decline: []string{"no", "cancel", "nope"},
			},
			models.LanguageHebrew: {
				Reset:   []string{"מחדש", "התחל מחדש", "איפוס"},
				Confirm: []string{"כן", "בסדר", "אישור"},
				Decline: []string{"לא", "ביטול"},
			},
		},
		Translations: movingTranslations,
	}
}

// movingTranslations is the (key, language) message table for the moving
// bot. Placeholders in braces are substituted by Translate.
var movingTranslations = map[string]map[models.Language]string{
	"welcome": {
		models.LanguageRussian: "Здравствуйте! Я помогу организовать перевозку. Опишите, что нужно перевезти (мебель, коробки, техника).",
		models.LanguageEnglish: "Hello! I'll help arrange your move. Describe what needs to be moved (furniture, boxes, appliances).",
		models.LanguageHebrew:  "שלום! אעזור לארגן את ההובלה. תארו מה צריך להוביל (רהיטים, ארגזים, מכשירים).",
	},
	"ask_cargo": {
		models.LanguageRussian: "Опишите, что нужно перевезти.",
		models.LanguageEnglish: "Describe what needs to be moved.",
		models.LanguageHebrew:  "תארו מה צריך להוביל.",
	},
	"ask_volume": {
		models.LanguageRussian: "Какой объём перевозки?\n1. Немного вещей / студия\n2. 2-комнатная квартира\n3. 3-комнатная квартира\n4. Большая квартира или дом",
		models.LanguageEnglish: "How big is the move?\n1. A few items / studio\n2. 2-room apartment\n3. 3-room apartment\n4. Large apartment or house",
		models.LanguageHebrew:  "מה גודל ההובלה?\n1. מעט חפצים / סטודיו\n2. דירת 2 חדרים\n3. דירת 3 חדרים\n4. דירה גדולה או בית",
	},
	"ask_pickup_count": {
		models.LanguageRussian: "Сколько адресов погрузки? (1, 2 или 3)",
		models.LanguageEnglish: "How many pickup addresses? (1, 2 or 3)",
		models.LanguageHebrew:  "כמה כתובות איסוף? (1, 2 או 3)",
	},
	"ask_addr_from": {
		models.LanguageRussian: "Укажите адрес погрузки (город, улица, дом).",
		models.LanguageEnglish: "Enter the pickup address (city, street, number).",
		models.LanguageHebrew:  "הזינו את כתובת האיסוף (עיר, רחוב, מספר).",
	},
	"ask_addr_from_n": {
		models.LanguageRussian: "Укажите адрес погрузки №{n}.",
		models.LanguageEnglish: "Enter pickup address #{n}.",
		models.LanguageHebrew:  "הזינו את כתובת האיסוף מספר {n}.",
	},
	"ask_floor_from": {
		models.LanguageRussian: "Какой этаж на погрузке? Есть ли лифт? (например: «3 этаж, без лифта»)",
		models.LanguageEnglish: "Which floor at pickup? Is there an elevator? (e.g. \"3rd floor, no elevator\")",
		models.LanguageHebrew:  "איזו קומה באיסוף? האם יש מעלית? (למשל: \"קומה 3, בלי מעלית\")",
	},
	"ask_floor_from_n": {
		models.LanguageRussian: "Какой этаж на погрузке №{n}? Есть ли лифт?",
		models.LanguageEnglish: "Which floor at pickup #{n}? Is there an elevator?",
		models.LanguageHebrew:  "איזו קומה באיסוף מספר {n}? האם יש מעלית?",
	},
	"ask_addr_to": {
		models.LanguageRussian: "Укажите адрес доставки (город, улица, дом).",
		models.LanguageEnglish: "Enter the delivery address (city, street, number).",
		models.LanguageHebrew:  "הזינו את כתובת היעד (עיר, רחוב, מספר).",
	},
	"ask_floor_to": {
		models.LanguageRussian: "Какой этаж на доставке? Есть ли лифт?",
		models.LanguageEnglish: "Which floor at delivery? Is there an elevator?",
		models.LanguageHebrew:  "איזו קומה ביעד? האם יש מעלית?",
	},
	"confirm_addresses": {
		models.LanguageRussian: "Вы указали адреса:\nОткуда: {from}\nКуда: {to}\n1. Всё верно, продолжить\n2. Ввести адреса заново",
		models.LanguageEnglish: "You provided these addresses:\nFrom: {from}\nTo: {to}\n1. Correct, continue\n2. Re-enter addresses",
		models.LanguageHebrew:  "הכתובות שציינתם:\nמ: {from}\nאל: {to}\n1. נכון, להמשיך\n2. להזין כתובות מחדש",
	},
	"ask_date": {
		models.LanguageRussian: "Когда планируется перевозка?\n1. Завтра\n2. Послезавтра\n3. Другая дата",
		models.LanguageEnglish: "When is the move planned?\n1. Tomorrow\n2. Day after tomorrow\n3. Another date",
		models.LanguageHebrew:  "מתי מתוכננת ההובלה?\n1. מחר\n2. מחרתיים\n3. תאריך אחר",
	},
	"ask_specific_date": {
		models.LanguageRussian: "Укажите дату в формате ДД.ММ (например 25.03) или словами («в пятницу», «15 марта»).",
		models.LanguageEnglish: "Enter a date as DD.MM (e.g. 25.03) or in words (\"friday\", \"15 march\").",
		models.LanguageHebrew:  "הזינו תאריך בפורמט DD.MM (למשל 25.03) או במילים.",
	},
	"ask_time_slot": {
		models.LanguageRussian: "В какое время удобно?\n1. Утро (8:00–12:00)\n2. День (12:00–16:00)\n3. Вечер (16:00–20:00)\n4. Точное время",
		models.LanguageEnglish: "What time works for you?\n1. Morning (8:00–12:00)\n2. Afternoon (12:00–16:00)\n3. Evening (16:00–20:00)\n4. Exact time",
		models.LanguageHebrew:  "איזו שעה נוחה?\n1. בוקר (8:00–12:00)\n2. צהריים (12:00–16:00)\n3. ערב (16:00–20:00)\n4. שעה מדויקת",
	},
	"ask_exact_time": {
		models.LanguageRussian: "Укажите точное время в формате ЧЧ:ММ (например 09:30).",
		models.LanguageEnglish: "Enter the exact time as HH:MM (e.g. 09:30).",
		models.LanguageHebrew:  "הזינו שעה מדויקת בפורמט HH:MM (למשל 09:30).",
	},
	"ask_photo": {
		models.LanguageRussian: "Можете прислать фото вещей — это уточнит оценку.\n1. Пришлю фото\n2. Без фото",
		models.LanguageEnglish: "You can send photos of the items — it sharpens the estimate.\n1. I'll send photos\n2. No photos",
		models.LanguageHebrew:  "אפשר לשלוח תמונות של החפצים — זה מדייק את ההערכה.\n1. אשלח תמונות\n2. בלי תמונות",
	},
	"ask_photo_wait": {
		models.LanguageRussian: "Пришлите фото. Когда закончите — напишите «готово».",
		models.LanguageEnglish: "Send the photos. Type \"done\" when finished.",
		models.LanguageHebrew:  "שלחו את התמונות. כשתסיימו — כתבו \"סיימתי\".",
	},
	"photo_received": {
		models.LanguageRussian: "Фото получено. Пришлите ещё или напишите «готово».",
		models.LanguageEnglish: "Photo received. Send more or type \"done\".",
		models.LanguageHebrew:  "התמונה התקבלה. שלחו עוד או כתבו \"סיימתי\".",
	},
	"ask_extras": {
		models.LanguageRussian: "Нужны дополнительные услуги?\n1. Упаковка\n2. Разборка/сборка мебели\n3. Временное хранение\n4. Ничего не нужно\nМожно перечислить цифры или описать словами.",
		models.LanguageEnglish: "Need any extra services?\n1. Packing\n2. Furniture disassembly/assembly\n3. Temporary storage\n4. Nothing needed\nList numbers or describe in words.",
		models.LanguageHebrew:  "צריכים שירותים נוספים?\n1. אריזה\n2. פירוק/הרכבה של רהיטים\n3. אחסון זמני\n4. לא צריך כלום\nאפשר לציין מספרים או לתאר במילים.",
	},
	"estimate_confirm": {
		models.LanguageRussian: "Предварительная оценка: {min}–{max} {currency}.\nОкончательная цена согласуется с оператором.\n1. Подтвердить заявку\n2. Отказаться",
		models.LanguageEnglish: "Preliminary estimate: {min}–{max} {currency}.\nThe final price is agreed with the operator.\n1. Confirm request\n2. Decline",
		models.LanguageHebrew:  "הערכה ראשונית: {min}–{max} {currency}.\nהמחיר הסופי מתואם עם נציג.\n1. לאשר בקשה\n2. לבטל",
	},
	"estimate_hidden": {
		models.LanguageRussian: "Спасибо! Оператор изучит детали и свяжется с вами с точной ценой.\n1. Подтвердить заявку\n2. Отказаться",
		models.LanguageEnglish: "Thank you! An operator will review the details and contact you with an exact price.\n1. Confirm request\n2. Decline",
		models.LanguageHebrew:  "תודה! נציג יבדוק את הפרטים ויחזור אליכם עם מחיר מדויק.\n1. לאשר בקשה\n2. לבטל",
	},
	"done": {
		models.LanguageRussian: "Заявка принята! Оператор свяжется с вами в ближайшее время.",
		models.LanguageEnglish: "Request received! An operator will contact you shortly.",
		models.LanguageHebrew:  "הבקשה התקבלה! נציג ייצור קשר בקרוב.",
	},
	"done_declined": {
		models.LanguageRussian: "Хорошо, заявка отменена. Напишите «заново», если передумаете.",
		models.LanguageEnglish: "Okay, the request is cancelled. Type \"restart\" if you change your mind.",
		models.LanguageHebrew:  "בסדר, הבקשה בוטלה. כתבו \"מחדש\" אם תתחרטו.",
	},
	"already_done": {
		models.LanguageRussian: "Ваша заявка уже оформлена. Напишите «заново», чтобы создать новую.",
		models.LanguageEnglish: "Your request is already submitted. Type \"restart\" to create a new one.",
		models.LanguageHebrew:  "הבקשה שלכם כבר נרשמה. כתבו \"מחדש\" כדי ליצור חדשה.",
	},
	"reset_done": {
		models.LanguageRussian: "Начинаем заново. Опишите, что нужно перевезти.",
		models.LanguageEnglish: "Starting over. Describe what needs to be moved.",
		models.LanguageHebrew:  "מתחילים מחדש. תארו מה צריך להוביל.",
	},
	"invalid_input": {
		models.LanguageRussian: "Не удалось обработать сообщение. Пожалуйста, отправьте обычный текст.",
		models.LanguageEnglish: "Couldn't process that message. Please resend as plain text.",
		models.LanguageHebrew:  "לא הצלחנו לעבד את ההודעה. שלחו שוב כטקסט רגיל.",
	},
	"too_short": {
		models.LanguageRussian: "Слишком короткий ответ. Опишите подробнее, пожалуйста.",
		models.LanguageEnglish: "That's too short. Please give a bit more detail.",
		models.LanguageHebrew:  "תשובה קצרה מדי. פרטו קצת יותר, בבקשה.",
	},
	"unknown_choice": {
		models.LanguageRussian: "Пожалуйста, выберите один из предложенных вариантов (цифрой).",
		models.LanguageEnglish: "Please pick one of the offered options (by number).",
		models.LanguageHebrew:  "אנא בחרו אחת מהאפשרויות המוצעות (במספר).",
	},
	"date_unrecognized": {
		models.LanguageRussian: "Не понял дату. Укажите в формате ДД.ММ или словами («завтра», «в пятницу»).",
		models.LanguageEnglish: "Couldn't read that date. Use DD.MM or words (\"tomorrow\", \"friday\").",
		models.LanguageHebrew:  "לא הבנתי את התאריך. השתמשו בפורמט DD.MM או במילים.",
	},
	"date_invalid": {
		models.LanguageRussian: "Такой даты не существует. Проверьте день и месяц.",
		models.LanguageEnglish: "That date doesn't exist. Check the day and month.",
		models.LanguageHebrew:  "תאריך כזה לא קיים. בדקו יום וחודש.",
	},
	"date_too_soon": {
		models.LanguageRussian: "Перевозку можно заказать не раньше, чем на завтра.",
		models.LanguageEnglish: "Moves can be booked starting from tomorrow.",
		models.LanguageHebrew:  "אפשר להזמין הובלה החל ממחר.",
	},
	"date_too_far": {
		models.LanguageRussian: "Эта дата слишком далеко — можно бронировать максимум на 60 дней вперёд.",
		models.LanguageEnglish: "That date is too far out — bookings go at most 60 days ahead.",
		models.LanguageHebrew:  "התאריך רחוק מדי — אפשר להזמין עד 60 יום קדימה.",
	},
	"time_invalid": {
		models.LanguageRussian: "Не понял время. Формат: ЧЧ:ММ, например 09:30.",
		models.LanguageEnglish: "Couldn't read that time. Format: HH:MM, e.g. 09:30.",
		models.LanguageHebrew:  "לא הבנתי את השעה. פורמט: HH:MM, למשל 09:30.",
	},
	"location_not_supported": {
		models.LanguageRussian: "Геолокация принимается только при вводе адреса.",
		models.LanguageEnglish: "Location pins are accepted only when an address is expected.",
		models.LanguageHebrew:  "מיקום מתקבל רק כשמצפים לכתובת.",
	},
}
