package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/theirongolddev/tripbudget/internal/model"
)

// Message keys.
const (
	KeyAppTitle        = "app.title"
	KeyTotal           = "total"
	KeyExpenses        = "expenses"
	KeyExpensesEmpty   = "expenses.empty"
	KeyExpensesTotal   = "expenses.total"
	KeyRatesUpdated    = "currency.rates.updated"
	KeyRatesError      = "currency.rates.error"
	KeyPlanAffordable  = "budget.status.affordable"
	KeyPlanNeedSavings = "budget.status.need.savings"
	KeyCurrentSavings  = "budget.current.savings"
	KeyMonthlyIncome   = "budget.monthly.income"
	KeyMonthsUntil     = "budget.months.until.travel"
	KeyRequiredMonthly = "budget.required.monthly"
	KeySurplus         = "budget.surplus"
	KeyDeficit         = "budget.deficit"
	KeyDestination     = "destination"
	KeyDeparture       = "departure.date"
	KeyName            = "expense.name"
	KeyAmount          = "expense.amount"
	KeyCurrency        = "expense.currency"
	KeyCategory        = "expense.category"
	KeyStatus          = "budget.status"
	KeySavingsGoal     = "budget.savings.goal"
	KeyProgress        = "budget.progress"
	KeyDaysLeft        = "trip.days.left"
	KeyAdvice          = "advice.title"
	KeyRatesOffline    = "currency.rates.offline"

	AdviceNoPlan        = "advice.no_plan"
	AdviceInsufficient  = "advice.insufficient"
	AdviceSaveMonthly   = "advice.save_monthly"
	AdviceAdequate      = "advice.adequate"
	AdviceReserve       = "advice.reserve"
	AdviceComfortable   = "advice.comfortable"
	AdviceExtras        = "advice.extras"
	AdviceFlights       = "advice.flights_high"
	AdviceAccommodation = "advice.accommodation_high"
	AdviceFewExpenses   = "advice.few_expenses"
	AdvicePlentyOfTime  = "advice.plenty_of_time"
	AdviceShortOnTime   = "advice.short_on_time"
)

var entries = map[string][2]string{ // key -> {ar, en}
	KeyAppTitle:        {"مخطط ميزانية السفر", "Travel Budget Planner"},
	KeyTotal:           {"المجموع", "Total"},
	KeyExpenses:        {"المصاريف", "Expenses"},
	KeyExpensesEmpty:   {"لم تتم إضافة أي مصاريف بعد", "No expenses added yet"},
	KeyExpensesTotal:   {"إجمالي المصاريف", "Total Expenses"},
	KeyRatesUpdated:    {"تم تحديث أسعار الصرف", "Exchange rates updated"},
	KeyRatesError:      {"خطأ في تحديث أسعار الصرف", "Error updating exchange rates"},
	KeyPlanAffordable:  {"✅ الميزانية متاحة", "✅ Budget is Affordable"},
	KeyPlanNeedSavings: {"⚠️ تحتاج لتوفير المزيد", "⚠️ Need More Savings"},
	KeyCurrentSavings:  {"المدخرات الحالية", "Current Savings"},
	KeyMonthlyIncome:   {"الدخل الشهري", "Monthly Income"},
	KeyMonthsUntil:     {"الأشهر المتبقية", "Months Until Travel"},
	KeyRequiredMonthly: {"المطلوب شهرياً", "Required Monthly"},
	KeySurplus:         {"الفائض", "Surplus"},
	KeyDeficit:         {"العجز", "Deficit"},
	KeyDestination:     {"الوجهة", "Destination"},
	KeyDeparture:       {"تاريخ المغادرة", "Departure Date"},
	KeyName:            {"الاسم", "Name"},
	KeyAmount:          {"المبلغ", "Amount"},
	KeyCurrency:        {"العملة", "Currency"},
	KeyCategory:        {"الفئة", "Category"},
	KeyStatus:          {"الحالة", "Status"},
	KeySavingsGoal:     {"هدف الادخار", "Savings Goal"},
	KeyProgress:        {"التقدم", "Progress"},
	KeyDaysLeft:        {"%d يوم متبقي", "%d days left"},
	KeyAdvice:          {"التوصيات", "Recommendations"},
	KeyRatesOffline:    {"أسعار صرف غير متصلة", "Offline exchange rates"},

	AdviceNoPlan:        {"قم بإعداد خطة ميزانية لرحلتك أولاً", "Set up a budget plan for your trip first"},
	AdviceInsufficient:  {"⚠️ الميزانية المتاحة غير كافية - فكر في تقليل المصاريف أو تأجيل الرحلة", "⚠️ The available budget is not enough - consider cutting expenses or postponing the trip"},
	AdviceSaveMonthly:   {"💡 حاول توفير %d شهرياً", "💡 Try to save %d per month"},
	AdviceAdequate:      {"✅ الميزانية كافية لكن بهامش ضيق", "✅ The budget is enough but the margin is narrow"},
	AdviceReserve:       {"💡 احتفظ بمبلغ إضافي 10-15%% للطوارئ", "💡 Keep an extra 10-15%% for emergencies"},
	AdviceComfortable:   {"🎉 الميزانية مريحة ومناسبة", "🎉 The budget is comfortable"},
	AdviceExtras:        {"💡 يمكنك إضافة أنشطة ترفيهية إضافية", "💡 You can add extra leisure activities"},
	AdviceFlights:       {"✈️ مصاريف الطيران مرتفعة - ابحث عن عروض أو مواعيد أخرى", "✈️ Flight costs are high - look for deals or other dates"},
	AdviceAccommodation: {"🏨 فكر في خيارات إقامة أوفر مثل الشقق المفروشة", "🏨 Consider cheaper stays such as furnished apartments"},
	AdviceFewExpenses:   {"📝 أضف المزيد من المصاريف المتوقعة للحصول على تخطيط أدق", "📝 Add more expected expenses for a more accurate plan"},
	AdvicePlentyOfTime:  {"⏰ لديك وقت كافي - يمكنك توفير مبلغ أقل شهرياً", "⏰ You have plenty of time - you can save less each month"},
	AdviceShortOnTime:   {"⚡ الوقت قصير - قد تحتاج لتوفير مبلغ أكبر شهرياً", "⚡ Time is short - you may need to save more each month"},
}

var cat = buildCatalog()

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, msgs := range entries {
		_ = b.SetString(language.Arabic, key, msgs[0])
		_ = b.SetString(language.English, key, msgs[1])
	}
	for _, info := range model.Categories {
		key := categoryKey(info.Key)
		_ = b.SetString(language.Arabic, key, info.NameAr)
		_ = b.SetString(language.English, key, info.NameEn)
	}
	for status, names := range statusNames {
		_ = b.SetString(language.Arabic, statusKey(status), names[0])
		_ = b.SetString(language.English, statusKey(status), names[1])
	}
	return b
}

var statusNames = map[model.BudgetStatus][2]string{
	model.StatusComfortable:  {"مريحة", "Comfortable"},
	model.StatusAdequate:     {"كافية", "Adequate"},
	model.StatusInsufficient: {"غير كافية", "Insufficient"},
	model.StatusOverBudget:   {"تتجاوز الميزانية", "Over Budget"},
}

func statusKey(s model.BudgetStatus) string { return "status." + string(s) }

func categoryKey(c model.Category) string { return "category." + string(c) }

// Printer returns a printer that resolves catalog keys and formats numbers
// for l.
func Printer(l Language) *message.Printer {
	return message.NewPrinter(l.Tag(), message.Catalog(cat))
}

// T translates key into l. Unknown keys are returned as-is.
func T(l Language, key string, args ...any) string {
	return Printer(l).Sprintf(key, args...)
}

// CategoryName returns the localized display name of c.
func CategoryName(l Language, c model.Category) string {
	if !c.Valid() {
		return string(c)
	}
	return T(l, categoryKey(c))
}

// StatusName returns the localized label of a budget status.
func StatusName(l Language, s model.BudgetStatus) string {
	if _, ok := statusNames[s]; !ok {
		return string(s)
	}
	return T(l, statusKey(s))
}
