package gmaps

// CSS selectors for the Google Maps search UI.
const (
	SearchInputSelector = `input#searchboxinput`
	FeedSelector        = `div[role="feed"]`
	ListingSelector     = `a[href*="https://www.google.com/maps/place"]`

	// Detail panel
	PanelHeadingSelector   = `div[role="main"] h1`
	AddressSelector        = `button[data-item-id="address"] div[class*="fontBodyMedium"]`
	WebsiteSelector        = `a[data-item-id="authority"] div[class*="fontBodyMedium"]`
	PhoneSelector          = `button[data-item-id*="phone:tel:"] div[class*="fontBodyMedium"]`
	ReviewsCountSelector   = `button[jsaction="pane.reviewChart.moreReviews"] span`
	ReviewsAverageSelector = `div[jsaction="pane.reviewChart.moreReviews"] div[role="img"]`

	// NameAttribute holds the place name on a listing anchor and the
	// rating on the stars indicator.
	NameAttribute = "aria-label"
)
