package schema

// BuiltinTemplateName is the name of the seeded default template.
const BuiltinTemplateName = "默认模板"

// BuiltinTemplate returns the built-in bank-transaction template: 16
// canonical fields with curated synonym lists covering the column spellings
// commonly seen in Chinese bank statement exports.
func BuiltinTemplate() *Template {
	return &Template{
		Name: BuiltinTemplateName,
		Fields: []Field{
			{Name: "ID", Type: TypeInt, Identifier: true, Synonyms: []string{"序号", "ID", "id", "编号"}},
			{Name: "记账日期", Type: TypeDate, Synonyms: []string{"交易日期", "会计日期", "日期", "date", "交易日", "前台交易日期"}},
			{Name: "记账时间", Type: TypeTime, Synonyms: []string{"交易时间", "时间", "time", "前台交易时间"}},
			{Name: "账户名", Type: TypeText, Synonyms: []string{"户名", "客户名称", "客户账户名", "账户中文名"}},
			{Name: "账号", Type: TypeText, Synonyms: []string{"客户账号", "账户", "account", "账户账号"}},
			{Name: "开户行", Type: TypeText, Synonyms: []string{"开户银行", "开户机构", "账户开户机构", "机构中文名称"}},
			{Name: "币种", Type: TypeText, Synonyms: []string{"货币代号", "币种代码", "currency", "钞汇标志"}},
			{Name: "借贷", Type: TypeText, Synonyms: []string{"借贷标志", "借贷方向", "借贷标记", "dr_cr"}},
			{Name: "交易金额", Type: TypeFloat, Synonyms: []string{"金额", "发生额", "交易额", "amount"}},
			{Name: "交易渠道", Type: TypeText, Synonyms: []string{"渠道", "交易方式", "渠道类型编号"}},
			{Name: "网点名称", Type: TypeText, Synonyms: []string{"网点", "营业网点", "营业机构", "机构名称"}},
			{Name: "附言", Type: TypeText, Synonyms: []string{"摘要", "备注", "摘要描述", "摘要代码描述"}},
			{Name: "余额", Type: TypeFloat, Synonyms: []string{"账户余额", "balance", "当前余额"}},
			{Name: "对手账户名", Type: TypeText, Synonyms: []string{"对方户名", "交易对方账户名", "对方账户名称"}},
			{Name: "对手账号", Type: TypeText, Synonyms: []string{"对方账号", "交易对方账号", "对方账户账号"}},
			{Name: "对手开户行", Type: TypeText, Synonyms: []string{"对方行名", "对方机构网点名称", "对方开户银行"}},
		},
	}
}
