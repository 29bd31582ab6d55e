// Package quiz 實作即時測驗房間引擎。
//
// 每個房間是一個獨立的事件迴圈（actor），透過信箱依序處理加入、
// 作答、計時等事件，房間內部狀態因此不需要鎖。Registry 負責
// 房間代碼的配發與存活房間的回收。
package quiz
