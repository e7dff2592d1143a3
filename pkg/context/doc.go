// Package context 为批量查询词装配有界的上下文文本。
//
// 每个查询词经历 获取-过滤-拼接-截断-缓存 的流水线：
// 从外部数据源取回候选段落，按与查询词的相似度过滤，
// 拼接后截断到 Token 预算内，并缓存结果供后续命中。
// 批量执行有两种策略：
//
//   - Orchestrator 在固定大小的工作池上扇出解析任务，
//     结果按输入顺序落位，输出顺序确定。
//   - Aggregator 共享一个全局 Token 预算，按完成顺序
//     接受摘要，输出顺序依运行而定。
//
// 所有依赖（检索客户端、评分器、计数器、缓存）都显式构造后注入，
// 包内不持有全局可变状态。
package context
