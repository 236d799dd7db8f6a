package store

import (
	"sync"
	"time"

	"kimmigration/internal/util"
	"kimmigration/pkg/domain"
)

// defaultProcedure is the 8-step handling procedure pre-filled on new
// sub-menus so editors start from the standard flow.
const defaultProcedure = "신청인(대행신청) -> 대행(온라인 상담) -> 대행(대행금액통보) -> 신청인(결제) -> 대행(신청문서 작성) -> 대행(접수) -> 심사기관(심사) -> 대행(결과)"

// NewSubMenu builds an empty sub-menu block with a fresh id.
func NewSubMenu(title string) domain.SubMenuContent {
	return domain.SubMenuContent{
		ID:        util.NewID(),
		Title:     title,
		Procedure: defaultProcedure,
	}
}

// EmptyServiceContent is the shape returned for a category with no saved
// data. Callers must not assume existence implies a prior save.
func EmptyServiceContent(id string) domain.ServiceContent {
	return domain.ServiceContent{ID: id, SubMenus: []domain.SubMenuContent{}}
}

// EmptyPageContent is the shape returned for a page with no saved data.
func EmptyPageContent(id string) domain.PageContent {
	return domain.PageContent{ID: id, Content: "<p>내용이 등록되지 않았습니다.</p>"}
}

// SeedNews is the starter news list installed on first read.
func SeedNews() []domain.NewsItem {
	return []domain.NewsItem{
		{
			ID:      1,
			Date:    "2024-05-20",
			Title:   "2024년 3분기 숙련기능인력(E-7-4) 선발 계획 공고",
			Content: "법무부는 산업현장의 인력난 해소를 위해 2024년도 3분기 숙련기능인력 점수제 선발을 실시합니다...",
		},
		{
			ID:      2,
			Date:    "2024-05-15",
			Title:   "외국인 등록증 발급 수수료 인상 안내",
			Content: "오는 6월 1일부터 외국인 등록증 발급 및 재발급 수수료가 기존 3만원에서 4만원으로 인상됩니다.",
		},
		{
			ID:      3,
			Date:    "2024-05-10",
			Title:   "여름 휴가철 출입국 심사 간소화 서비스 시행",
			Content: "인천국제공항 이용객 편의를 위해 자동출입국심사 등록 연령이 하향 조정됩니다.",
		},
	}
}

// visaSeed is built once so the generated sub-menu ids stay stable for the
// life of the process; a listed id must resolve on the next read.
var visaSeed = sync.OnceValue(buildVisaSeed)

// VisaSeedContent is the only non-empty category seed.
func VisaSeedContent() domain.ServiceContent {
	return visaSeed().Clone()
}

func buildVisaSeed() domain.ServiceContent {
	subAB := NewSubMenu("사증(VISA)발급 : 코드 A,B")
	subAB.Description = "A 또는 B로 시작하는 체류 자격 코드에 대한 사증(VISA)발급을 신청하실 수 있습니다."
	subAB.Target = "코드 A, B 비자 발급 대상자"
	subAB.Reference = "사증 유형을 선택해주세요"
	subAB.DocumentOptions = []domain.DocumentOption{
		{Label: "외교(A-1)", Value: "A-1", Content: "외교(A-1) 필요 서류 목록..."},
		{Label: "공무(A-2)", Value: "A-2", Content: "공무(A-2) 필요 서류 목록..."},
		{Label: "협정(A-3)", Value: "A-3", Content: "협정(A-3) 필요 서류 목록..."},
		{Label: "사증면제(B-1)", Value: "B-1", Content: "사증면제(B-1) 필요 서류 목록..."},
		{Label: "관광통과(B-2)", Value: "B-2", Content: "관광통과(B-2) 필요 서류 목록..."},
	}
	subAB.ContentBody = `
<table>
  <thead>
    <tr>
      <th>세부 약호</th>
      <th>구분</th>
      <th>대상</th>
    </tr>
  </thead>
  <tbody>
    <tr>
      <td>A-1</td>
      <td>외교</td>
      <td>외교사절단 및 영사기관 구성원</td>
    </tr>
    <tr>
      <td>A-2</td>
      <td>공무</td>
      <td>대한민국 정부/국제기구 공무 수행자</td>
    </tr>
  </tbody>
</table>`

	subC := NewSubMenu("사증(VISA)발급 : 코드 C")
	subC.Target = "코드 C 비자 발급 대상자"

	return domain.ServiceContent{
		ID:     "visa",
		Target: "대한민국정부가 접수한 외국정부의 외교사절단이나 영사기관의 구성원, 조약 또는 국제관행에 따라 외교사절과 동등한 특권과 면제를 받는 자와 그 가족",
		Documents: "- 사증발급신청서 (별지 제17호 서식)\n- 여권\n- 표준규격사진 1매\n" +
			"- 파견, 재직을 증명하는 서류\n- 가족관계 입증서류",
		DocumentOptions: []domain.DocumentOption{
			{Label: "외교(A-1)", Value: "A-1", Content: "- 사증발급신청서 (별지 제17호 서식)\n- 여권\n- 표준규격사진 1매\n- 파견, 재직을 증명하는 서류\n- 가족관계 입증서류"},
			{Label: "공무(A-2)", Value: "A-2", Content: "- 사증발급신청서\n- 관용여권\n- 공무수행 입증 서류"},
			{Label: "협정(A-3)", Value: "A-3", Content: "- 사증발급신청서\n- 여권\n- 협정 관련 입증 서류"},
		},
		Reference: "※ 첨부서류 안내\n① 사증발급신청서 (별지 제17호 서식), 여권, 표준규격사진 1매, 수수료\n" +
			"② 파견, 재직을 증명하는 서류 또는 해당국 외교부장관의 협조공한\n" +
			"③ 동반가족의 경우 본국에서 발급한 가족관계증명서, 출생증명서 등 가족관계 입증서류",
		SubMenus: []domain.SubMenuContent{
			subAB,
			subC,
			NewSubMenu("사증(VISA)발급 : 코드 D"),
			NewSubMenu("사증(VISA)발급 : 코드 E"),
			NewSubMenu("사증(VISA)발급 : 코드 F"),
			NewSubMenu("사증(VISA)발급 : 코드 G, H"),
		},
	}
}

// BootstrapAdmin builds the super-admin record for a bootstrap config.
func BootstrapAdmin(b Bootstrap) domain.AdminUser {
	return domain.AdminUser{
		Email:        b.AdminEmail,
		PasswordHash: b.AdminPasswordHash,
		IsApproved:   true,
		IsSuperAdmin: true,
		CreatedAt:    time.Now().UTC(),
	}
}
