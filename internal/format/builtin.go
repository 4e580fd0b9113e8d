package format

// Built-in format ids. User-defined formats start at 1000.
const (
	IDRemux2160p      int64 = 1
	IDBluRay1080p     int64 = 2
	IDWebDL1080p      int64 = 3
	IDWebRip1080p     int64 = 4
	IDHDTV720p        int64 = 5
	IDDVDSource       int64 = 6
	IDDolbyVision     int64 = 7
	IDHDR10Plus       int64 = 8
	IDHDR10           int64 = 9
	IDAtmos           int64 = 10
	IDTrueHD          int64 = 11
	IDDTSHDMA         int64 = 12
	IDStreamingTier   int64 = 13
	IDx265Efficient   int64 = 14
	IDRepack          int64 = 15
	IDProper          int64 = 16
	IDCAMBanned       int64 = 17
	IDTSBanned        int64 = 18
	IDSCRBanned       int64 = 19
	IDLowQualityGroup int64 = 20
)

// Builtins returns the module's built-in CustomFormat catalog (spec §3,
// SPEC_FULL.md §4.2a), grounded on the Outpost preset file's built-in
// preset list and the teacher's PredefinedQualities table.
func Builtins() []Format {
	return []Format{
		{
			ID: IDRemux2160p, Name: "Remux 2160p", Category: CategoryResolution, DefaultScore: 2000,
			Conditions: []Condition{
				{Type: ConditionResolution, Required: true, Literal: "2160p"},
				{Type: ConditionReleaseTitle, Required: true, Pattern: MustPattern(`(?i)\bREMUX\b`)},
			},
		},
		{
			ID: IDBluRay1080p, Name: "BluRay 1080p", Category: CategoryResolution, DefaultScore: 800,
			Conditions: []Condition{
				{Type: ConditionResolution, Required: true, Literal: "1080p"},
				{Type: ConditionSource, Required: true, Literal: "bluray"},
			},
		},
		{
			ID: IDWebDL1080p, Name: "WEB-DL 1080p", Category: CategoryResolution, DefaultScore: 600,
			Conditions: []Condition{
				{Type: ConditionResolution, Required: true, Literal: "1080p"},
				{Type: ConditionSource, Required: true, Literal: "webdl"},
			},
		},
		{
			ID: IDWebRip1080p, Name: "WEBRip 1080p", Category: CategoryResolution, DefaultScore: 500,
			Conditions: []Condition{
				{Type: ConditionResolution, Required: true, Literal: "1080p"},
				{Type: ConditionSource, Required: true, Literal: "webrip"},
			},
		},
		{
			ID: IDHDTV720p, Name: "HDTV 720p", Category: CategoryResolution, DefaultScore: 100,
			Conditions: []Condition{
				{Type: ConditionResolution, Required: true, Literal: "720p"},
				{Type: ConditionSource, Required: true, Literal: "hdtv"},
			},
		},
		{
			ID: IDDVDSource, Name: "DVD source", Category: CategoryLowQuality, DefaultScore: -200,
			Conditions: []Condition{
				{Type: ConditionSource, Required: true, Literal: "dvd"},
			},
		},
		{
			ID: IDDolbyVision, Name: "Dolby Vision", Category: CategoryHDR, DefaultScore: 300,
			Conditions: []Condition{
				{Type: ConditionReleaseTitle, Required: true, Pattern: MustPattern(`(?i)\b(DV|Dolby[-._ ]?Vision)\b`)},
			},
		},
		{
			ID: IDHDR10Plus, Name: "HDR10+", Category: CategoryHDR, DefaultScore: 200,
			Conditions: []Condition{
				{Type: ConditionReleaseTitle, Required: true, Pattern: MustPattern(`(?i)\bHDR10\+\b`)},
			},
		},
		{
			ID: IDHDR10, Name: "HDR10", Category: CategoryHDR, DefaultScore: 150,
			Conditions: []Condition{
				{Type: ConditionReleaseTitle, Required: true, Pattern: MustPattern(`(?i)\bHDR10\b`)},
			},
		},
		{
			ID: IDAtmos, Name: "Atmos", Category: CategoryAudio, DefaultScore: 150,
			Conditions: []Condition{
				{Type: ConditionReleaseTitle, Required: true, Pattern: MustPattern(`(?i)\bAtmos\b`)},
			},
		},
		{
			ID: IDTrueHD, Name: "TrueHD", Category: CategoryAudio, DefaultScore: 100,
			Conditions: []Condition{
				{Type: ConditionReleaseTitle, Required: true, Pattern: MustPattern(`(?i)\bTrueHD\b`)},
			},
		},
		{
			ID: IDDTSHDMA, Name: "DTS-HD MA", Category: CategoryAudio, DefaultScore: 90,
			Conditions: []Condition{
				{Type: ConditionReleaseTitle, Required: true, Pattern: MustPattern(`(?i)\bDTS[-._ ]?HD[-._ ]?MA\b`)},
			},
		},
		{
			ID: IDStreamingTier, Name: "Premium streaming service", Category: CategoryStreaming, DefaultScore: 50,
			Conditions: []Condition{
				{Type: ConditionReleaseTitle, Required: true, Pattern: MustPattern(`(?i)\b(NF|AMZN|DSNP|ATVP)\b`)},
			},
		},
		{
			ID: IDx265Efficient, Name: "x265 efficient encode", Category: CategoryCodec, DefaultScore: 25,
			Conditions: []Condition{
				{Type: ConditionReleaseTitle, Required: true, Pattern: MustPattern(`(?i)\b(x265|HEVC)\b`)},
			},
		},
		{
			ID: IDRepack, Name: "Repack", Category: CategoryEnhancement, DefaultScore: 5,
			Conditions: []Condition{
				{Type: ConditionReleaseTitle, Required: true, Pattern: MustPattern(`(?i)\b(REPACK\d*|RERIP)\b`)},
			},
		},
		{
			ID: IDProper, Name: "Proper", Category: CategoryEnhancement, DefaultScore: 5,
			Conditions: []Condition{
				{Type: ConditionReleaseTitle, Required: true, Pattern: MustPattern(`(?i)\bPROPER\b`)},
			},
		},
		{
			ID: IDCAMBanned, Name: "CAM", Category: CategoryBanned, DefaultScore: -999999,
			Conditions: []Condition{
				{Type: ConditionSource, Required: true, Literal: "cam"},
			},
		},
		{
			ID: IDTSBanned, Name: "Telesync", Category: CategoryBanned, DefaultScore: -999999,
			Conditions: []Condition{
				{Type: ConditionSource, Required: true, Literal: "ts"},
			},
		},
		{
			ID: IDSCRBanned, Name: "Screener", Category: CategoryBanned, DefaultScore: -999999,
			Conditions: []Condition{
				{Type: ConditionSource, Required: true, Literal: "scr"},
			},
		},
		{
			ID: IDLowQualityGroup, Name: "Known low-quality group", Category: CategoryLowQuality, DefaultScore: -500,
			Conditions: []Condition{
				{Type: ConditionReleaseGroup, Required: true, Pattern: MustPattern(`(?i)^(YIFY|YTS|RARBG-LQ)$`)},
			},
		},
	}
}
