package transcode

// FitWithin returns the largest even dimensions that fit inside the box
// while keeping the source aspect ratio. It never upscales: a source that
// already fits keeps its own size, rounded down to even.
func FitWithin(srcWidth, srcHeight, boxWidth, boxHeight int) (int, int) {
	if srcWidth <= 0 || srcHeight <= 0 {
		return even(boxWidth), even(boxHeight)
	}
	if srcWidth <= boxWidth && srcHeight <= boxHeight {
		return even(srcWidth), even(srcHeight)
	}
	// Compare boxWidth/srcWidth with boxHeight/srcHeight in integers.
	if boxWidth*srcHeight <= boxHeight*srcWidth {
		return even(boxWidth), even(srcHeight * boxWidth / srcWidth)
	}
	return even(srcWidth * boxHeight / srcHeight), even(boxHeight)
}

func even(value int) int {
	value &^= 1
	if value < 2 {
		return 2
	}
	return value
}
