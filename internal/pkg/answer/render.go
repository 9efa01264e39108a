package answer

import (
	"fmt"
	"strings"
)

// GalleryHeading 附加图片区的标题
const GalleryHeading = "**相关图片:**"

// Render 把状态渲染成最终文本:
// 拼接正文, 把 [[display_id]] 换成 [display_id], 末尾追加正文里没有出现过的图库图片。
func Render(s *State) string {
	content := s.Content()

	for _, ref := range s.references {
		if ref.DisplayID == "" {
			continue
		}
		content = strings.ReplaceAll(content, "[["+ref.DisplayID+"]]", "["+ref.DisplayID+"]")
	}

	if gallery := galleryImages(s.images); len(gallery) > 0 {
		var b strings.Builder
		b.WriteString(content)
		b.WriteString("\n\n" + GalleryHeading + "\n")
		for _, img := range gallery {
			caption := img.Caption
			if caption == "" {
				caption = img.Name
			}
			fmt.Fprintf(&b, "![%s](%s)\n", caption, img.ThumbnailURL)
		}
		content = b.String()
	}

	return strings.TrimSpace(content)
}

// galleryImages 需要追加到末尾的图片: 非正文图片, 且没有和正文图片重复, 名字和缩略图都不为空
func galleryImages(images []Image) []Image {
	inline := make(map[imageKey]struct{})
	for _, img := range images {
		if img.Origin == OriginInline {
			inline[img.key()] = struct{}{}
		}
	}

	var out []Image
	for _, img := range images {
		if img.Origin == OriginInline {
			continue
		}
		if _, dup := inline[img.key()]; dup {
			continue
		}
		if img.Name == "" || img.ThumbnailURL == "" {
			continue
		}
		out = append(out, img)
	}
	return out
}

// ReferencesMarkdown 参考文献列表, 形如 "1. [标题](链接) - 来源 (日期)"
func ReferencesMarkdown(refs []Reference) string {
	if len(refs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("**参考文献:**\n")
	for _, ref := range refs {
		b.WriteString(ref.DisplayID + ". ")
		if ref.Link != "" {
			fmt.Fprintf(&b, "[%s](%s)", ref.Title, ref.Link)
		} else {
			b.WriteString(ref.Title)
		}
		if ref.Source != "" {
			b.WriteString(" - " + ref.Source)
		}
		if ref.Date != "" {
			b.WriteString(" (" + ref.Date + ")")
		}
		b.WriteString("\n")
	}
	return b.String()
}
