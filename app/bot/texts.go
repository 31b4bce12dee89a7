package bot

import (
	"golang.org/x/text/language"
)

var supportedLanguages = []language.Tag{
	language.English,
	language.Persian,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

// matchLanguage maps a Telegram language code onto a supported language.
func matchLanguage(code string) string {
	if code == "" {
		return "en"
	}

	tag, err := language.Parse(code)
	if err != nil {
		return "en"
	}

	_, index, _ := languageMatcher.Match(tag)
	if supportedLanguages[index] == language.Persian {
		return "fa"
	}
	return "en"
}

var texts = map[string]map[string]string{
	"en": {
		"welcome":              "🦷 *Welcome to DentalBrief!*\n\nI help dental professionals stay updated with the latest research, tailored to your education level.\n\nLet's set up your profile first.",
		"select_language":      "Please select your preferred language:",
		"help":                 "*DentalBrief Help*\n\n*Commands:*\n/start - Start the bot and set up your profile\n/settings - Change your preferences\n/journals - Manage journal subscriptions\n/latest - Get latest articles from your subscriptions\n/link <url> - Get a tailored summary of any article\n/help - Show this help message\n\n*How it works:*\n1. Set your language and education level\n2. Subscribe to journals you're interested in\n3. Receive tailored summaries when new articles are published\n\nThe bot will automatically tailor the content based on your education level - simpler language for students, more technical for specialists.",
		"not_onboarded":        "Please complete your profile first with /start",
		"language_set":         "✅ Language set to English!\n\nNow, let's set your education level.",
		"select_education":     "What is your current role in dentistry?",
		"select_year":          "Which year are you in?",
		"select_specialty":     "What is your specialty?",
		"language_changed":     "✅ Language changed to English.",
		"select_category":      "📚 *Journal Categories*\n\nSelect a category to see journals:",
		"select_journals":      "📚 *%s*\n\nSelect journals to subscribe/unsubscribe.\n✅ = Subscribed",
		"subscribed":           "✅ Subscribed to %s!",
		"unsubscribed":         "❌ Unsubscribed from %s",
		"no_subscriptions":     "You don't have any subscriptions yet.\n\nUse /journals to subscribe to journals.",
		"your_subscriptions":   "📚 *Your Subscriptions:*\n\n%s",
		"subscriptions_tip":    "\n\n💡 Use /latest to get the latest articles from your subscriptions.",
		"fetch_latest_prompt":  "Would you like to fetch the latest articles from this journal now?",
		"fetching_articles":    "📥 Fetching latest articles from %s...",
		"no_articles":          "No articles found in this journal yet.",
		"articles_sent":        "✅ Sent %d article(s) from %s!",
		"back":                 "⬅️ Back",
		"done":                 "✅ Done",
		"my_subscriptions":     "⭐ My Subscriptions",
		"tap_to_unsubscribe":   "📚 *Your Subscriptions*\n\nTap to unsubscribe:",
		"no_new_articles":      "No new articles from your subscribed journals.\n\nCheck back later or use /journals to subscribe to more journals.",
		"fetching_latest":      "📚 Fetching latest articles from your subscriptions...",
		"processing_link":      "🔄 Processing article...",
		"link_usage":           "Please provide an article URL:\n\n`/link https://example.com/article`",
		"error_processing":     "❌ Error processing the article. Please try again.",
		"article_not_found":    "❌ Could not find or access the article at this URL.",
		"settings_title":       "*Current Settings:*",
		"settings_language":    "🌐 Language",
		"settings_education":   "🎓 Education Level",
		"settings_journals":    "📚 Journals",
		"settings_use_journals": "Use the /journals command to manage your subscriptions.",
		"select_language_short": "Select language:",
		"not_set":              "Not set",
		"yes_fetch":            "📥 Yes",
		"skip_fetch":           "⏭️ Skip",
		"export_md_done":       "📝 Markdown exported!",
		"export_pdf_missing":   "PDF export is not available yet. Use the Markdown export instead.",
		"export_failed":        "Failed to generate file",
		"export_no_content":    "No content to export",
		"onboarding_complete":  "✅ *Profile setup complete!*\n\nNow let's subscribe you to some journals. Use /journals to select journals you're interested in.\n\nYou'll receive tailored summaries of new articles based on your education level.",
	},
	"fa": {
		"welcome":              "🦷 *به DentalBrief خوش آمدید!*\n\nاین ربات به دندانپزشکان و دانشجویان کمک می‌کند تا از جدیدترین مقالات علمی، متناسب با سطح دانش خود آگاه شوند.\n\nلطفاً برای شروع، پروفایل خود را تنظیم کنید.",
		"select_language":      "لطفاً زبان مورد نظر خود را انتخاب کنید:",
		"help":                 "*راهنمای استفاده از DentalBrief*\n\n*دستورات:*\n/start - اجرای ربات و تنظیم پروفایل کاربری\n/settings - تغییر تنظیمات کاربری\n/journals - مدیریت اشتراک مجلات\n/latest - دریافت آخرین مقالات از اشتراک‌های فعال\n/link <آدرس> - دریافت خلاصه اختصاصی برای هر مقاله\n/help - نمایش همین راهنما\n\n*راهنمای استفاده:*\n۱. زبان و سطح تحصیلات خود را تنظیم کنید.\n۲. مجلات علمی مورد علاقه خود را انتخاب نمایید.\n۳. با انتشار مقالات جدید، خلاصه آن‌ها را دریافت کنید.\n\nربات به صورت هوشمند، محتوای علمی را بر اساس سطح دانش و تخصص شما ساده‌سازی و متناسب می‌کند.",
		"not_onboarded":        "لطفاً ابتدا با دستور /start پروفایل خود را تکمیل کنید.",
		"language_set":         "✅ زبان فارسی انتخاب شد.\n\nاکنون لطفاً سطح تحصیلات خود را تعیین کنید.",
		"select_education":     "موقعیت فعلی شما در حوزه دندانپزشکی چیست؟",
		"select_year":          "در حال تحصیل در کدام سال هستید؟",
		"select_specialty":     "تخصص شما چیست؟",
		"language_changed":     "✅ زبان به فارسی تغییر کرد.",
		"select_category":      "📚 *دسته‌بندی مجلات*\n\nلطفاً یک دسته‌بندی را جهت مشاهده مجلات انتخاب کنید:",
		"select_journals":      "📚 *%s*\n\nبرای اشتراک یا لغو اشتراک، روی نام مجله ضربه بزنید.\n✅ = اشتراک فعال",
		"subscribed":           "✅ اشتراک در %s فعال شد!",
		"unsubscribed":         "❌ اشتراک %s لغو گردید",
		"no_subscriptions":     "شما هنوز در هیچ مجله‌ای عضو نشده‌اید.\n\nلطفاً برای عضویت از دستور /journals استفاده کنید.",
		"your_subscriptions":   "📚 *فهرست اشتراک‌های شما:*\n\n%s",
		"subscriptions_tip":    "\n\n💡 از /latest برای دریافت آخرین مقالات استفاده کنید.",
		"fetch_latest_prompt":  "آیا مایلید آخرین مقالات منتشر شده در این مجله را هم‌اکنون دریافت کنید؟",
		"fetching_articles":    "📥 در حال بازیابی آخرین مقالات از %s...",
		"no_articles":          "در حال حاضر مقاله جدیدی در این مجله یافت نشد.",
		"articles_sent":        "✅ تعداد %d مقاله از %s ارسال شد.",
		"back":                 "⬅️ بازگشت",
		"done":                 "✅ اتمام",
		"my_subscriptions":     "⭐ اشتراک‌های من",
		"tap_to_unsubscribe":   "📚 *اشتراک‌های شما*\n\nبرای لغو اشتراک ضربه بزنید:",
		"no_new_articles":      "مقاله جدیدی در مجلات منتخب شما یافت نشد.\n\nمی‌توانید بعداً مجدداً بررسی کنید یا با /journals منابع بیشتری اضافه نمایید.",
		"fetching_latest":      "📚 در حال جستجو برای آخرین مقالات در اشتراک‌های شما...",
		"processing_link":      "🔄 در حال پردازش و آماده‌سازی مقاله...",
		"link_usage":           "لطفاً لینک مقاله را به صورت زیر ارسال کنید:\n\n`/link https://example.com/article`",
		"error_processing":     "❌ خطا در پردازش مقاله. لطفاً مجدداً تلاش کنید.",
		"article_not_found":    "❌ دسترسی به مقاله در این آدرس امکان‌پذیر نشد.",
		"settings_title":       "*تنظیمات فعلی:*",
		"settings_language":    "🌐 زبان",
		"settings_education":   "🎓 سطح تحصیلات",
		"settings_journals":    "📚 مجلات",
		"settings_use_journals": "از دستور /journals برای مدیریت اشتراک‌ها استفاده کنید.",
		"select_language_short": "زبان را انتخاب کنید:",
		"not_set":              "تنظیم نشده",
		"yes_fetch":            "📥 بله",
		"skip_fetch":           "⏭️ رد کردن",
		"export_md_done":       "📝 فایل Markdown آماده شد!",
		"export_pdf_missing":   "خروجی PDF هنوز در دسترس نیست. لطفاً از خروجی Markdown استفاده کنید.",
		"export_failed":        "ساخت فایل با خطا مواجه شد",
		"export_no_content":    "محتوایی برای خروجی یافت نشد",
		"onboarding_complete":  "✅ *تنظیم پروفایل با موفقیت انجام شد!*\n\nحالا نوبت انتخاب مجلات است. با دستور /journals مجلات مورد نظر خود را انتخاب کنید.\n\nشما خلاصه‌ای اختصاصی از جدیدترین مقالات را متناسب با سطح علمی خود دریافت خواهید کرد.",
	},
}

func getText(key, lang string) string {
	if langTexts, ok := texts[lang]; ok {
		if text, ok := langTexts[key]; ok {
			return text
		}
	}
	if text, ok := texts["en"][key]; ok {
		return text
	}
	return key
}

// educationLevels keeps the onboarding keyboard order stable.
var educationLevelOrder = []string{"dds_student", "general_dentist", "resident", "specialist", "faculty"}

var educationLevelLabels = map[string]map[string]string{
	"en": {
		"dds_student":     "🎓 DDS Student",
		"general_dentist": "👨‍⚕️ General Dentist",
		"resident":        "📚 Specialty Resident",
		"specialist":      "🏆 Specialist",
		"faculty":         "👨‍🏫 Faculty/Professor",
	},
	"fa": {
		"dds_student":     "🎓 دانشجوی دندانپزشکی",
		"general_dentist": "👨‍⚕️ دندانپزشک عمومی",
		"resident":        "📚 دستیار تخصصی",
		"specialist":      "🏆 متخصص",
		"faculty":         "👨‍🏫 هیئت علمی/استاد",
	},
}

var specialties = []string{
	"Orthodontics",
	"Periodontics",
	"Prosthodontics",
	"Endodontics",
	"Oral and Maxillofacial Surgery",
	"Restorative Dentistry",
	"Oral and Maxillofacial Radiology",
	"Oral and Maxillofacial Pathology",
	"Pediatric Dentistry",
	"Oral Medicine",
	"Community Oral Health",
	"Dental Materials",
}

var categoryIcons = map[string]string{
	"Periodontology":      "🦷",
	"Endodontics":         "🔬",
	"Prosthodontics":      "🦿",
	"Orthodontics":        "😁",
	"Oral Surgery":        "🏥",
	"Implantology":        "⚙️",
	"General Dentistry":   "📚",
	"Oral Medicine":       "💊",
	"Dental Materials":    "🧪",
	"Public Health":       "🌍",
	"Oral Rehabilitation": "♻️",
}

var categoryNamesFa = map[string]string{
	"Periodontology":      "پریودنتولوژی",
	"Endodontics":         "اندودانتیکس",
	"Prosthodontics":      "پروتزهای دندانی",
	"Orthodontics":        "ارتودنسی",
	"Oral Surgery":        "جراحی دهان، فک و صورت",
	"Implantology":        "ایمپلنت",
	"General Dentistry":   "دندانپزشکی عمومی",
	"Oral Medicine":       "بیماری‌های دهان و فک و صورت",
	"Dental Materials":    "مواد دندانی",
	"Public Health":       "سلامت دهان و دندان جامعه‌نگر",
	"Oral Rehabilitation": "بازسازی دهان و دندان",
}

func categoryIcon(category string) string {
	if icon, ok := categoryIcons[category]; ok {
		return icon
	}
	return "📖"
}

func categoryLabel(category, lang string) string {
	if lang == "fa" {
		if name, ok := categoryNamesFa[category]; ok {
			return name
		}
	}
	return category
}
